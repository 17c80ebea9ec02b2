package common

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type sample struct {
	Name  string `validate:"required,max=5"`
	Count int    `validate:"gte=0"`
}

func TestGenericEchoValidator(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr string
	}{
		{name: "valid", input: sample{Name: "abc", Count: 1}},
		{name: "missing name", input: sample{Count: 1}, wantErr: "Name failed required"},
		{name: "long name", input: sample{Name: "abcdef"}, wantErr: "Name failed max"},
		{name: "negative count", input: sample{Name: "a", Count: -1}, wantErr: "Count failed gte"},
	}

	gv := &GenericEchoValidator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gv.Validate(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var httpErr *echo.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected echo.HTTPError, got %v", err)
			}
			if httpErr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", httpErr.Code)
			}
			if msg, _ := httpErr.Message.(string); !strings.Contains(msg, tt.wantErr) {
				t.Errorf("expected message to contain %q, got %q", tt.wantErr, msg)
			}
		})
	}
}
