package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.DB() == nil {
		t.Fatal("DB() returned nil")
	}
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Close()

	// Reopening an existing database must not fail on existing tables.
	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("New() on existing database error = %v", err)
	}
	s.Close()
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	if _, err := settings.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on missing key error = %v, want ErrNotFound", err)
	}

	if err := settings.Set("camera_device", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, err := settings.Get("camera_device"); err != nil || got != "1" {
		t.Errorf("Get() = (%q, %v), want (\"1\", nil)", got, err)
	}

	// Set replaces the existing value.
	if err := settings.Set("camera_device", "2"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if got, _ := settings.Get("camera_device"); got != "2" {
		t.Errorf("Get() after overwrite = %q, want \"2\"", got)
	}

	if err := settings.Delete("camera_device"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := settings.Get("camera_device"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting a missing key is not an error.
	if err := settings.Delete("camera_device"); err != nil {
		t.Errorf("Delete() on missing key error = %v", err)
	}
}
