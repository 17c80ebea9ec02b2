package database

import (
	"testing"

	"github.com/google/uuid"
)

func TestGenerateID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("generateID returned invalid uuid %q: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
