package canvas

import (
	"sync"
	"testing"

	"designer-pro/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(800, 600, core.Background{Color: "#ffffff"})
}

func ids(es core.Elements) []core.ElementID {
	out := make([]core.ElementID, 0, len(es))
	for _, el := range es {
		out = append(out, el.ID())
	}
	return out
}

func TestAddElement_PreservesInsertionOrder(t *testing.T) {
	s := newTestStore()

	a := core.NewText("A")
	b := core.NewImage("https://example.com/b.png")
	c := core.NewText("C")
	s.AddElement(a)
	s.AddElement(b)
	s.AddElement(c)

	assert.Equal(t, []core.ElementID{a.ID(), b.ID(), c.ID()}, ids(s.Elements()))

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, c.ID(), sel, "newest element should be selected")
}

func TestAddElement_StoresCopy(t *testing.T) {
	s := newTestStore()
	el := core.NewText("original")
	s.AddElement(el)

	el.Content = "mutated outside"

	got, ok := s.Element(el.ID())
	require.True(t, ok)
	assert.Equal(t, "original", got.(*core.TextElement).Content)
}

func TestAddElement_DuplicateIDIgnored(t *testing.T) {
	s := newTestStore()
	a := core.NewText("A")
	b := core.NewImage("https://example.com/b.png")
	require.True(t, s.AddElement(a))
	require.True(t, s.AddElement(b))

	assert.False(t, s.AddElement(a), "same element added twice")
	assert.Equal(t, []core.ElementID{a.ID(), b.ID()}, ids(s.Elements()))
	sel, _ := s.Selected()
	assert.Equal(t, b.ID(), sel, "selection is untouched by an ignored add")

	content := "edited"
	require.True(t, s.UpdateElement(a.ID(), Patch{Content: &content}))
	got, _ := s.Element(a.ID())
	assert.Equal(t, "edited", got.(*core.TextElement).Content)
}

func TestUpdateElement_Idempotent(t *testing.T) {
	s := newTestStore()
	el := core.NewText("x")
	s.AddElement(el)

	require.True(t, s.UpdateElement(el.ID(), Patch{X: Ptr(50.0)}))
	once := s.Document()
	rev := s.Revision()

	require.True(t, s.UpdateElement(el.ID(), Patch{X: Ptr(50.0)}))
	assert.Equal(t, once, s.Document())
	assert.Equal(t, rev, s.Revision(), "a no-change update should not bump the revision")
}

func TestUpdateElement_MissingIDIsNoop(t *testing.T) {
	s := newTestStore()
	s.AddElement(core.NewText("x"))
	before := s.Document()

	assert.NotPanics(t, func() {
		assert.False(t, s.UpdateElement("nonexistent", Patch{X: Ptr(10.0), Content: Ptr("y")}))
	})
	assert.Equal(t, before, s.Document())
}

func TestUpdateElement_VariantFieldsStayApart(t *testing.T) {
	s := newTestStore()
	img := core.NewImage("a.png")
	txt := core.NewText("hello")
	s.AddElement(img)
	s.AddElement(txt)

	require.True(t, s.UpdateElement(img.ID(), Patch{Content: Ptr("ignored"), Src: Ptr("b.png"), Opacity: Ptr(0.5)}))
	require.True(t, s.UpdateElement(txt.ID(), Patch{Src: Ptr("ignored"), Content: Ptr("bye")}))

	gotImg, _ := s.Element(img.ID())
	assert.Equal(t, "b.png", gotImg.(*core.ImageElement).Src)
	assert.Equal(t, 0.5, gotImg.Bounds().Opacity)

	gotTxt, _ := s.Element(txt.ID())
	assert.Equal(t, "bye", gotTxt.(*core.TextElement).Content)
}

func TestDeleteElement_Selection(t *testing.T) {
	s := newTestStore()
	a := core.NewText("A")
	b := core.NewText("B")
	s.AddElement(a)
	s.AddElement(b)

	s.Select(a.ID())
	require.True(t, s.DeleteElement(b.ID()))

	sel, ok := s.Selected()
	require.True(t, ok, "deleting another element keeps the selection")
	assert.Equal(t, a.ID(), sel)

	require.True(t, s.DeleteElement(a.ID()))
	_, ok = s.Selected()
	assert.False(t, ok, "deleting the selected element clears the selection")
	assert.Empty(t, s.Elements())
}

func TestDeleteElement_MissingIsNoop(t *testing.T) {
	s := newTestStore()
	a := core.NewText("A")
	s.AddElement(a)

	assert.False(t, s.DeleteElement("missing"))
	assert.Len(t, s.Elements(), 1)
	sel, _ := s.Selected()
	assert.Equal(t, a.ID(), sel)
}

func TestSelection_StableUnderInsertion(t *testing.T) {
	s := newTestStore()
	a := core.NewText("A")
	s.AddElement(a)
	s.Select(a.ID())

	// Insert and delete around the selection; it must keep pointing at A.
	b := core.NewText("B")
	s.AddElement(b)
	s.Select(a.ID())
	s.DeleteElement(b.ID())
	s.AddElement(core.NewText("C"))
	s.Select(a.ID())

	el, ok := s.SelectedElement()
	require.True(t, ok)
	assert.Equal(t, "A", el.(*core.TextElement).Content)
}

func TestSelect_DoesNotValidate(t *testing.T) {
	s := newTestStore()
	s.Select("ghost")

	sel, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, core.ElementID("ghost"), sel)

	_, ok = s.SelectedElement()
	assert.False(t, ok)
	assert.False(t, s.MoveSelected(Up, DefaultStep))
}

func TestMoveSelected(t *testing.T) {
	s := newTestStore()
	el := core.NewText("x")
	s.AddElement(el)

	tests := []struct {
		dir    Direction
		dx, dy float64
	}{
		{Up, 0, -10},
		{Down, 0, 10},
		{Left, -10, 0},
		{Right, 10, 0},
	}
	for _, tt := range tests {
		before, _ := s.Element(el.ID())
		require.True(t, s.MoveSelected(tt.dir, DefaultStep))
		after, _ := s.Element(el.ID())
		assert.Equal(t, before.Bounds().X+tt.dx, after.Bounds().X)
		assert.Equal(t, before.Bounds().Y+tt.dy, after.Bounds().Y)
	}

	s.ClearSelection()
	before := s.Document()
	assert.False(t, s.MoveSelected(Down, DefaultStep))
	assert.Equal(t, before, s.Document())
}

func TestResetDocument(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 5; i++ {
		s.AddElement(core.NewText("x"))
	}

	s.ResetDocument(1080, 1920, core.Background{Color: "#000000"})

	doc := s.Document()
	assert.Empty(t, doc.Elements)
	assert.Equal(t, core.CanvasSize{Width: 1080, Height: 1920}, doc.Size)
	assert.Equal(t, "#000000", doc.Background.Color)
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestResizeAndBackgroundKeepElements(t *testing.T) {
	s := newTestStore()
	s.AddElement(core.NewText("x"))

	s.Resize(1024, 768)
	s.SetBackgroundColor("#123456")
	s.SetBackgroundImage("/uploads/backgrounds/bg.png")

	doc := s.Document()
	assert.Len(t, doc.Elements, 1)
	assert.Equal(t, core.CanvasSize{Width: 1024, Height: 768}, doc.Size)
	assert.Equal(t, core.Background{Color: "#123456", ImageURL: "/uploads/backgrounds/bg.png"}, doc.Background)
}

func TestLoad_ReplacesDocumentAndClearsSelection(t *testing.T) {
	s := newTestStore()
	s.AddElement(core.NewText("old"))

	doc := core.NewDocument(1200, 630)
	doc.Elements = append(doc.Elements, core.NewImage("a.png"), core.NewText("new"))
	s.Load(doc)

	// The store must not alias the caller's document.
	doc.Elements = nil

	got := s.Document()
	assert.Len(t, got.Elements, 2)
	assert.Equal(t, 1200, got.Size.Width)
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestStore_ConcurrentEdits(t *testing.T) {
	s := newTestStore()
	el := core.NewText("x")
	s.AddElement(el)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.UpdateElement(el.ID(), Patch{X: Ptr(float64(i*j))})
				s.AddElement(core.NewImage("a.png"))
				_ = s.Document()
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Elements(), 1+8*50)
}
