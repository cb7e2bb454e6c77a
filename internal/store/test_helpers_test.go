package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/contactos/internal/contact"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestInput creates a complete candidate contact.
func createTestInput(name, email, phone string) contact.Input {
	return contact.Input{Name: name, Email: email, Phone: phone}
}
