package sqldb

import (
	"path/filepath"
	"testing"

	"designer-pro/stores/storetest"
)

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "designer.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer s.Close()
	storetest.Run(t, s)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "designer.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	storetest.Run(t, s)
	s.Close()

	s, err = NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, _, err := s.Open(t.Context(), "bg.png"); err != nil {
		t.Errorf("asset lost after reopen: %v", err)
	}
}

func TestNewMySQL_InvalidDSN(t *testing.T) {
	if _, err := NewMySQL("not a dsn"); err == nil {
		t.Error("expected an error for an invalid DSN")
	}
}
