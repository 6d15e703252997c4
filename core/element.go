package core

import (
	"github.com/oklog/ulid/v2"
)

type (
	// ElementID identifies an element within a canvas session. IDs are ULIDs,
	// so they sort in generation order and are never handed out twice.
	ElementID string

	// Kind discriminates the element variants on the wire.
	Kind string

	// FontFamily is one of the families offered by the text tool.
	FontFamily string

	// Align is the horizontal text alignment relative to the element centre.
	Align string

	// Frame holds the geometry and visual attributes shared by every element.
	Frame struct {
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Width    float64 `json:"width"`
		Height   float64 `json:"height"`
		Opacity  float64 `json:"opacity"`
		Rotation float64 `json:"rotation"`
	}

	// Element is implemented by *TextElement and *ImageElement only.
	Element interface {
		ID() ElementID
		Kind() Kind
		Bounds() *Frame
		Clone() Element

		element()
	}

	// TextStyle is the styling part of a text element. The editor keeps one
	// around as the defaults for the next text element.
	TextStyle struct {
		FontSize    float64    `json:"fontSize"`
		FontFamily  FontFamily `json:"fontFamily"`
		Color       string     `json:"color"`
		Bold        bool       `json:"bold"`
		Italic      bool       `json:"italic"`
		Underline   bool       `json:"underline"`
		Align       Align      `json:"align"`
		ShadowBlur  float64    `json:"shadowBlur"`
		ShadowColor string     `json:"shadowColor"`
	}

	TextElement struct {
		ElementID ElementID
		Frame
		TextStyle
		Content string
	}

	ImageElement struct {
		ElementID ElementID
		Frame
		Src string
	}
)

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

const (
	FontArial         FontFamily = "Arial"
	FontTimesNewRoman FontFamily = "Times New Roman"
	FontGeorgia       FontFamily = "Georgia"
	FontCourierNew    FontFamily = "Courier New"
	FontVerdana       FontFamily = "Verdana"
	FontImpact        FontFamily = "Impact"
)

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// FontFamilies lists the supported families in picker order.
var FontFamilies = []FontFamily{
	FontArial, FontTimesNewRoman, FontGeorgia, FontCourierNew, FontVerdana, FontImpact,
}

// Valid reports whether f is one of the supported families.
func (f FontFamily) Valid() bool {
	for _, ff := range FontFamilies {
		if ff == f {
			return true
		}
	}
	return false
}

// Valid reports whether a is left, center or right.
func (a Align) Valid() bool {
	return a == AlignLeft || a == AlignCenter || a == AlignRight
}

// DefaultTextStyle is the style of a freshly created text element.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontSize:    32,
		FontFamily:  FontArial,
		Color:       "#000000",
		Align:       AlignLeft,
		ShadowColor: "#000000",
	}
}

// NewElementID returns a fresh, generation-ordered element id.
func NewElementID() ElementID {
	return ElementID(ulid.Make().String())
}

// NewText creates a text element at the default position with the default style.
func NewText(content string) *TextElement {
	return NewTextStyled(content, DefaultTextStyle())
}

// NewTextStyled creates a text element at the default position using style.
func NewTextStyled(content string, style TextStyle) *TextElement {
	return &TextElement{
		ElementID: NewElementID(),
		Frame:     Frame{X: 100, Y: 100, Width: 300, Height: 50, Opacity: 1},
		TextStyle: style,
		Content:   content,
	}
}

// NewImage creates an image element at the default position. src is not
// checked; a broken URL only shows up when the element is rendered.
func NewImage(src string) *ImageElement {
	return &ImageElement{
		ElementID: NewElementID(),
		Frame:     Frame{X: 50, Y: 50, Width: 300, Height: 200, Opacity: 1},
		Src:       src,
	}
}

func (t *TextElement) ID() ElementID  { return t.ElementID }
func (t *TextElement) Kind() Kind     { return KindText }
func (t *TextElement) Bounds() *Frame { return &t.Frame }
func (t *TextElement) element()       {}

func (t *TextElement) Clone() Element {
	c := *t
	return &c
}

func (i *ImageElement) ID() ElementID  { return i.ElementID }
func (i *ImageElement) Kind() Kind     { return KindImage }
func (i *ImageElement) Bounds() *Frame { return &i.Frame }
func (i *ImageElement) element()       {}

func (i *ImageElement) Clone() Element {
	c := *i
	return &c
}

// Center returns the geometric centre of the frame in canvas space.
func (f Frame) Center() (float64, float64) {
	return f.X + f.Width/2, f.Y + f.Height/2
}
