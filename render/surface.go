// Package render rasterizes documents. The export algorithm only talks to a
// Surface, so it does not depend on a particular 2D backend; RasterSurface
// is the x/image implementation used by the server and the CLI.
package render

import (
	"image"
	"image/color"
	"io"
	"math"

	"designer-pro/core"
)

type (
	// Placement positions something on a surface the way a 2D context would
	// after save/translate/rotate/globalAlpha: the local origin sits at
	// (CenterX, CenterY), the content is rotated by Rotation degrees
	// clockwise and painted with Alpha.
	Placement struct {
		CenterX, CenterY float64
		Width, Height    float64
		Rotation         float64
		Alpha            float64
	}

	// TextRun is one line of styled text.
	TextRun struct {
		Content     string
		Family      core.FontFamily
		Size        float64
		Bold        bool
		Italic      bool
		Underline   bool
		Align       core.Align
		Color       color.Color
		ShadowBlur  float64
		ShadowColor color.Color
	}

	// Surface is the drawing capability the exporter needs.
	Surface interface {
		Size() (width, height int)
		FillRect(r image.Rectangle, c color.Color)
		// DrawImage scales img to exactly p.Width x p.Height, centred on the
		// local origin.
		DrawImage(img image.Image, p Placement)
		// DrawText draws run aligned horizontally against the local origin
		// and centred vertically on it.
		DrawText(run TextRun, p Placement)
		Encode(w io.Writer) error
	}
)

// PlacementOf returns the placement of an element frame.
func PlacementOf(f core.Frame) Placement {
	cx, cy := f.Center()
	alpha := f.Opacity
	if math.IsNaN(alpha) || alpha > 1 {
		alpha = 1
	}
	if alpha < 0 {
		alpha = 0
	}
	return Placement{
		CenterX:  cx,
		CenterY:  cy,
		Width:    f.Width,
		Height:   f.Height,
		Rotation: f.Rotation,
		Alpha:    alpha,
	}
}

func (p Placement) radians() float64 {
	return p.Rotation * math.Pi / 180
}
