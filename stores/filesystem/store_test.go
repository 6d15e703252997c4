package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"designer-pro/core"
	"designer-pro/stores/storetest"
)

func TestFilesystemStore(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	storetest.Run(t, s)
}

func TestFilesystemStore_RejectsTraversal(t *testing.T) {
	base := t.TempDir()
	s, err := NewStore(filepath.Join(base, "data"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	secret := filepath.Join(base, "secret.json")
	if err := os.WriteFile(secret, []byte(`{"name":"secret"}`), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for _, id := range []string{"../../secret", "..", "a/b"} {
		if _, err := s.Get(ctx, "alice", id); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("Get(%q) = %v, want ErrInvalidKey", id, err)
		}
	}
	if _, err := s.List(ctx, "../..", 10); !errors.Is(err, core.ErrInvalidKey) {
		t.Errorf("List with traversal user = %v, want ErrInvalidKey", err)
	}
}

func TestFilesystemStore_SkipsCorruptFiles(t *testing.T) {
	base := t.TempDir()
	s, err := NewStore(base)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	ctx := context.Background()
	d := core.NewDesign("alice", core.DesignInput{Name: "Good"})
	if err := s.Create(ctx, d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	bad := filepath.Join(base, "designs", "alice", "broken.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx, "alice", 100)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Good" {
		t.Errorf("expected only the readable design, got %d", len(list))
	}
}
