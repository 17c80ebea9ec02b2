package database

import (
	"bytes"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestDB(t *testing.T) DatabaseService {
	t.Helper()

	ds, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDatabase error: %v", err)
	}
	if err := ds.CreateDatabase(); err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func newTestRedis(t *testing.T) DatabaseService {
	t.Helper()

	server := miniredis.RunT(t)
	ds, err := NewDatabase(TypeRedis, "redis://"+server.Addr())
	if err != nil {
		t.Fatalf("NewDatabase(redis) error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func forEachStore(t *testing.T, fn func(t *testing.T, ds DatabaseService)) {
	stores := map[string]func(t *testing.T) DatabaseService{
		"sqlite": newTestDB,
		"redis":  newTestRedis,
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			fn(t, newStore(t))
		})
	}
}

func TestDoesDatabaseExist(t *testing.T) {
	forEachStore(t, func(t *testing.T, ds DatabaseService) {
		if !ds.DoesDatabaseExist() {
			t.Fatalf("expected DoesDatabaseExist to return true")
		}
	})
}

func TestNewDatabase_UnreachableRedis(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	ds, err := NewDatabase(TypeRedis, "redis://"+addr)
	if !errors.Is(err, ErrDatabaseUnavailable) {
		t.Fatalf("expected ErrDatabaseUnavailable, got %v", err)
	}
	if ds != nil {
		t.Error("expected no store for an unreachable redis")
	}
}

func TestCreateAndGetPreview(t *testing.T) {
	forEachStore(t, func(t *testing.T, ds DatabaseService) {
		data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
		id, err := ds.CreatePreview(&Preview{ContentType: "image/png", Data: data})
		if err != nil {
			t.Fatalf("CreatePreview error: %v", err)
		}
		if id == "" {
			t.Fatal("expected non-empty preview id")
		}

		got, err := ds.GetPreview(id)
		if err != nil {
			t.Fatalf("GetPreview error: %v", err)
		}
		if got.ID != id {
			t.Errorf("expected ID %q, got %q", id, got.ID)
		}
		if got.ContentType != "image/png" {
			t.Errorf("expected content type image/png, got %q", got.ContentType)
		}
		if !bytes.Equal(got.Data, data) {
			t.Errorf("data mismatch: got %v", got.Data)
		}
	})
}

func TestCreatePreview_RejectsEmpty(t *testing.T) {
	forEachStore(t, func(t *testing.T, ds DatabaseService) {
		if _, err := ds.CreatePreview(&Preview{ContentType: "image/png"}); err == nil {
			t.Fatal("expected error for empty preview data")
		}
		if _, err := ds.CreatePreview(nil); err == nil {
			t.Fatal("expected error for nil preview")
		}
	})
}

func TestDeletePreview(t *testing.T) {
	forEachStore(t, func(t *testing.T, ds DatabaseService) {
		id1, err := ds.CreatePreview(&Preview{ContentType: "image/png", Data: []byte("a")})
		if err != nil {
			t.Fatalf("CreatePreview #1 error: %v", err)
		}
		id2, err := ds.CreatePreview(&Preview{ContentType: "image/png", Data: []byte("b")})
		if err != nil {
			t.Fatalf("CreatePreview #2 error: %v", err)
		}

		if err := ds.DeletePreview(id1); err != nil {
			t.Fatalf("DeletePreview error: %v", err)
		}
		if _, err := ds.GetPreview(id1); !errors.Is(err, ErrPreviewNotFound) {
			t.Fatalf("expected ErrPreviewNotFound after delete, got %v", err)
		}
		if err := ds.DeletePreview(id1); !errors.Is(err, ErrPreviewNotFound) {
			t.Fatalf("expected ErrPreviewNotFound on second delete, got %v", err)
		}

		count, err := ds.CountPreviews()
		if err != nil {
			t.Fatalf("CountPreviews error: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 preview after deletion, got %d", count)
		}
		if _, err := ds.GetPreview(id2); err != nil {
			t.Fatalf("expected remaining preview %q, got error %v", id2, err)
		}
	})
}

func TestGetPreview_Unknown(t *testing.T) {
	forEachStore(t, func(t *testing.T, ds DatabaseService) {
		if _, err := ds.GetPreview("non-existent-id"); !errors.Is(err, ErrPreviewNotFound) {
			t.Fatalf("expected ErrPreviewNotFound, got %v", err)
		}
	})
}

func TestNewDatabase_UnsupportedType(t *testing.T) {
	if _, err := NewDatabase("postgres", "whatever"); err == nil {
		t.Fatal("expected error for unsupported database type")
	}
}

func TestNewDatabase_InvalidRedisURL(t *testing.T) {
	if _, err := NewDatabase(TypeRedis, "not a url"); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}
