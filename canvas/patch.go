package canvas

import "designer-pro/core"

// Patch is a partial update. Nil fields are left untouched. Text-only
// fields are ignored for image elements and Src is ignored for text.
type Patch struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`

	Content     *string          `json:"content,omitempty"`
	FontSize    *float64         `json:"fontSize,omitempty"`
	FontFamily  *core.FontFamily `json:"fontFamily,omitempty"`
	Color       *string          `json:"color,omitempty"`
	Bold        *bool            `json:"bold,omitempty"`
	Italic      *bool            `json:"italic,omitempty"`
	Underline   *bool            `json:"underline,omitempty"`
	Align       *core.Align      `json:"align,omitempty"`
	ShadowBlur  *float64         `json:"shadowBlur,omitempty"`
	ShadowColor *string          `json:"shadowColor,omitempty"`

	Src *string `json:"src,omitempty"`
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T {
	return &v
}

// Empty reports whether the patch sets nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// apply merges p into el and reports whether anything changed.
func (p Patch) apply(el core.Element) bool {
	changed := false
	setF := func(dst *float64, v *float64) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	setS := func(dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	setB := func(dst *bool, v *bool) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}

	f := el.Bounds()
	setF(&f.X, p.X)
	setF(&f.Y, p.Y)
	setF(&f.Width, p.Width)
	setF(&f.Height, p.Height)
	setF(&f.Opacity, p.Opacity)
	setF(&f.Rotation, p.Rotation)

	switch e := el.(type) {
	case *core.TextElement:
		setS(&e.Content, p.Content)
		setF(&e.FontSize, p.FontSize)
		if p.FontFamily != nil && e.FontFamily != *p.FontFamily {
			e.FontFamily = *p.FontFamily
			changed = true
		}
		setS(&e.Color, p.Color)
		setB(&e.Bold, p.Bold)
		setB(&e.Italic, p.Italic)
		setB(&e.Underline, p.Underline)
		if p.Align != nil && e.Align != *p.Align {
			e.Align = *p.Align
			changed = true
		}
		setF(&e.ShadowBlur, p.ShadowBlur)
		setS(&e.ShadowColor, p.ShadowColor)
	case *core.ImageElement:
		setS(&e.Src, p.Src)
	}
	return changed
}
