package canvas

import (
	"math"
	"strings"
	"sync"

	"designer-pro/core"

	"github.com/mazznoer/csscolorparser"
)

// Range is an inclusive numeric range used to clamp editor input.
type Range struct {
	Min, Max float64
}

var (
	PositionRange   = Range{-10000, 10000}
	SizeRange       = Range{1, 10000}
	OpacityRange    = Range{0, 1}
	FontSizeRange   = Range{12, 120}
	ShadowBlurRange = Range{0, 50}
)

// Clamp limits v to r. NaN maps to r.Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// NormalizeRotation wraps degrees into [0, 360).
func NormalizeRotation(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// ClampElement forces every numeric attribute of el into the ranges the
// editor enforces. It is used on documents that did not come through the
// editor, such as request bodies and hand-written files.
func ClampElement(el core.Element) {
	if el == nil {
		return
	}
	f := el.Bounds()
	f.X = PositionRange.Clamp(f.X)
	f.Y = PositionRange.Clamp(f.Y)
	f.Width = SizeRange.Clamp(f.Width)
	f.Height = SizeRange.Clamp(f.Height)
	f.Opacity = OpacityRange.Clamp(f.Opacity)
	f.Rotation = NormalizeRotation(f.Rotation)
	if t, ok := el.(*core.TextElement); ok {
		t.FontSize = FontSizeRange.Clamp(t.FontSize)
		t.ShadowBlur = ShadowBlurRange.Clamp(t.ShadowBlur)
	}
}

// NormalizeHex parses a #rgb or #rrggbb colour and returns it as lower-case
// #rrggbb.
func NormalizeHex(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") || (len(s) != 4 && len(s) != 7) {
		return "", false
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return "", false
	}
	return strings.ToLower(c.HexString()), true
}

type (
	// Editor writes property edits into the selected element of a Store.
	// Each setter clamps its input and issues one single-field update; with
	// nothing selected it does nothing and returns false.
	Editor struct {
		store *Store

		mu    sync.Mutex
		style core.TextStyle
	}

	// Fields is what the property panel shows for the selected element.
	Fields struct {
		ID      core.ElementID
		Kind    core.Kind
		Frame   core.Frame
		Style   core.TextStyle // zero for images
		Content string
		Src     string
	}
)

func NewEditor(store *Store) *Editor {
	return &Editor{store: store, style: core.DefaultTextStyle()}
}

// Defaults returns the sticky text style new text elements start with.
func (e *Editor) Defaults() core.TextStyle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.style
}

// NewText creates a text element carrying the sticky style. It is not added
// to the store.
func (e *Editor) NewText(content string) *core.TextElement {
	return core.NewTextStyled(content, e.Defaults())
}

// Fields returns the selected element's properties; ok is false when the
// panel should show its placeholder.
func (e *Editor) Fields() (Fields, bool) {
	el, ok := e.store.SelectedElement()
	if !ok {
		return Fields{}, false
	}
	f := Fields{ID: el.ID(), Kind: el.Kind(), Frame: *el.Bounds()}
	switch v := el.(type) {
	case *core.TextElement:
		f.Style = v.TextStyle
		f.Content = v.Content
	case *core.ImageElement:
		f.Src = v.Src
	}
	return f, true
}

func (e *Editor) SetX(v float64) bool {
	return e.apply(Patch{X: Ptr(PositionRange.Clamp(v))}, false)
}

func (e *Editor) SetY(v float64) bool {
	return e.apply(Patch{Y: Ptr(PositionRange.Clamp(v))}, false)
}

func (e *Editor) SetWidth(v float64) bool {
	return e.apply(Patch{Width: Ptr(SizeRange.Clamp(v))}, false)
}

func (e *Editor) SetHeight(v float64) bool {
	return e.apply(Patch{Height: Ptr(SizeRange.Clamp(v))}, false)
}

func (e *Editor) SetOpacity(v float64) bool {
	return e.apply(Patch{Opacity: Ptr(OpacityRange.Clamp(v))}, false)
}

func (e *Editor) SetRotation(deg float64) bool {
	return e.apply(Patch{Rotation: Ptr(NormalizeRotation(deg))}, false)
}

func (e *Editor) SetContent(s string) bool {
	return e.apply(Patch{Content: &s}, true)
}

func (e *Editor) SetFontSize(v float64) bool {
	v = FontSizeRange.Clamp(v)
	return e.applyStyle(Patch{FontSize: &v}, func(s *core.TextStyle) { s.FontSize = v })
}

func (e *Editor) SetFontFamily(f core.FontFamily) bool {
	if !f.Valid() {
		return false
	}
	return e.applyStyle(Patch{FontFamily: &f}, func(s *core.TextStyle) { s.FontFamily = f })
}

// SetColor accepts #rgb or #rrggbb; anything else is rejected.
func (e *Editor) SetColor(hex string) bool {
	c, ok := NormalizeHex(hex)
	if !ok {
		return false
	}
	return e.applyStyle(Patch{Color: &c}, func(s *core.TextStyle) { s.Color = c })
}

func (e *Editor) SetBold(on bool) bool {
	return e.applyStyle(Patch{Bold: &on}, func(s *core.TextStyle) { s.Bold = on })
}

func (e *Editor) SetItalic(on bool) bool {
	return e.applyStyle(Patch{Italic: &on}, func(s *core.TextStyle) { s.Italic = on })
}

func (e *Editor) SetUnderline(on bool) bool {
	return e.applyStyle(Patch{Underline: &on}, func(s *core.TextStyle) { s.Underline = on })
}

func (e *Editor) SetAlign(a core.Align) bool {
	if !a.Valid() {
		return false
	}
	return e.applyStyle(Patch{Align: &a}, func(s *core.TextStyle) { s.Align = a })
}

func (e *Editor) SetShadowBlur(v float64) bool {
	v = ShadowBlurRange.Clamp(v)
	return e.applyStyle(Patch{ShadowBlur: &v}, func(s *core.TextStyle) { s.ShadowBlur = v })
}

func (e *Editor) SetShadowColor(hex string) bool {
	c, ok := NormalizeHex(hex)
	if !ok {
		return false
	}
	return e.applyStyle(Patch{ShadowColor: &c}, func(s *core.TextStyle) { s.ShadowColor = c })
}

// SetSource swaps the image of the selected image element.
func (e *Editor) SetSource(src string) bool {
	el, ok := e.store.SelectedElement()
	if !ok || el.Kind() != core.KindImage {
		return false
	}
	return e.store.UpdateElement(el.ID(), Patch{Src: &src})
}

// applyStyle applies a text style patch and, on success, remembers the value
// as the default for the next text element.
func (e *Editor) applyStyle(p Patch, remember func(*core.TextStyle)) bool {
	if !e.apply(p, true) {
		return false
	}
	e.mu.Lock()
	remember(&e.style)
	e.mu.Unlock()
	return true
}

func (e *Editor) apply(p Patch, textOnly bool) bool {
	el, ok := e.store.SelectedElement()
	if !ok {
		return false
	}
	if textOnly && el.Kind() != core.KindText {
		return false
	}
	return e.store.UpdateElement(el.ID(), p)
}
