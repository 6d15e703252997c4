package memory

import (
	"context"
	"testing"

	"designer-pro/core"
	"designer-pro/stores/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, NewStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	d := core.NewDesign("u", core.DesignInput{Name: "A", Elements: core.Elements{core.NewText("x")}})
	if err := s.Create(ctx, d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	d.Elements[0].(*core.TextElement).Content = "changed"

	got, _ := s.Get(ctx, "u", d.ID)
	if got.Elements[0].(*core.TextElement).Content != "x" {
		t.Error("store must not alias the caller's design")
	}
}
