// Package storetest checks store implementations against the behaviour
// the handlers rely on.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"designer-pro/core"
)

// Store is what every backend implements.
type Store interface {
	core.DesignStore
	core.AssetStore
}

func newDesign(userID, name string) *core.Design {
	text := core.NewText("SALE")
	text.Color = "#ff0000"
	return core.NewDesign(userID, core.DesignInput{
		Name:            name,
		CanvasSize:      core.CanvasSize{Width: 1080, Height: 1080},
		Background:      "#fafafa",
		BackgroundImage: "/uploads/backgrounds/bg.png",
		Elements:        core.Elements{text, core.NewImage("https://img.test/a.png")},
	})
}

// Run exercises designs and assets.
func Run(t *testing.T, s Store) {
	t.Run("designs", func(t *testing.T) { testDesigns(t, s) })
	t.Run("assets", func(t *testing.T) { testAssets(t, s) })
}

func testDesigns(t *testing.T, s Store) {
	ctx := context.Background()

	first := newDesign("alice", "First")
	if err := s.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("Create must assign id and time, got %+v", first)
	}
	time.Sleep(2 * time.Millisecond)
	second := newDesign("alice", "Second")
	if err := s.Create(ctx, second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Create(ctx, newDesign("bob", "Other")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.Get(ctx, "alice", first.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "First" || got.CanvasSize.Width != 1080 || got.Background != "#fafafa" ||
		got.BackgroundImage != "/uploads/backgrounds/bg.png" {
		t.Errorf("unexpected design %+v", got)
	}
	if len(got.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(got.Elements))
	}
	text, ok := got.Elements[0].(*core.TextElement)
	if !ok || text.Content != "SALE" || text.Color != "#ff0000" || text.ID() != first.Elements[0].ID() {
		t.Errorf("text element did not round-trip: %+v", got.Elements[0])
	}
	if _, ok := got.Elements[1].(*core.ImageElement); !ok {
		t.Errorf("expected image element, got %T", got.Elements[1])
	}

	list, err := s.List(ctx, "alice", 100)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("expected newest first [%s %s], got %v", second.ID, first.ID, names(list))
	}
	list, _ = s.List(ctx, "alice", 1)
	if len(list) != 1 || list[0].ID != second.ID {
		t.Errorf("limit not applied: %v", names(list))
	}
	list, _ = s.List(ctx, "nobody", 100)
	if len(list) != 0 {
		t.Errorf("expected no designs, got %v", names(list))
	}

	if _, err := s.Get(ctx, "bob", first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("designs must be scoped to their owner, got %v", err)
	}
	if err := s.Delete(ctx, "bob", first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleting another user's design must fail with ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "alice", first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "alice", first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "alice", first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete should be ErrNotFound, got %v", err)
	}
}

func testAssets(t *testing.T, s Store) {
	ctx := context.Background()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	if err := s.Put(ctx, "bg.png", "image/png", png); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	data, contentType, err := s.Open(ctx, "bg.png")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(data) != string(png) || contentType != "image/png" {
		t.Errorf("unexpected asset %q %s", data, contentType)
	}
	if _, _, err := s.Open(ctx, "missing.png"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	for _, bad := range []string{"", "..", "../etc/passwd", "a/b.png"} {
		if err := s.Put(ctx, bad, "image/png", png); err == nil {
			t.Errorf("Put(%q) should fail", bad)
		}
	}
}

func names(ds []*core.Design) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name+"/"+d.ID)
	}
	return out
}
