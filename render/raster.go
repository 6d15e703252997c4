package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"designer-pro/core"

	"github.com/anthonynsimon/bild/blur"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// RasterSurface draws into an in-memory RGBA image and encodes it as PNG.
type RasterSurface struct {
	img   *image.RGBA
	fonts *Fonts
}

func NewRasterSurface(width, height int) *RasterSurface {
	return &RasterSurface{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		fonts: NewFonts(),
	}
}

func (s *RasterSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image exposes the backing image.
func (s *RasterSurface) Image() *image.RGBA {
	return s.img
}

func (s *RasterSurface) FillRect(r image.Rectangle, c color.Color) {
	draw.Draw(s.img, r.Intersect(s.img.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

func (s *RasterSurface) DrawImage(img image.Image, p Placement) {
	if img == nil || p.Width <= 0 || p.Height <= 0 || p.Alpha <= 0 {
		return
	}
	if img.Bounds().Empty() {
		return
	}
	layer := toRGBA(img)
	b := layer.Bounds()
	sx := p.Width / float64(b.Dx())
	sy := p.Height / float64(b.Dy())
	s.composite(layer, -p.Width/2, -p.Height/2, sx, sy, p)
}

func (s *RasterSurface) DrawText(run TextRun, p Placement) {
	if run.Content == "" || p.Alpha <= 0 {
		return
	}
	face, err := s.fonts.Face(run.Family, run.Bold, run.Italic, run.Size)
	if err != nil {
		logrus.WithError(err).WithField("family", run.Family).Warn("Skipping text run")
		return
	}

	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	advance := font.MeasureString(face, run.Content).Ceil()
	pad := int(math.Ceil(run.ShadowBlur*2)) + 4
	w := advance + 2*pad
	h := ascent + descent + 2*pad
	baseline := pad + ascent

	layer := image.NewRGBA(image.Rect(0, 0, w, h))
	if run.ShadowBlur > 0 && run.ShadowColor != nil {
		mask := image.NewRGBA(layer.Bounds())
		drawString(mask, face, run, run.ShadowColor, pad, baseline)
		shadow := blur.Gaussian(mask, run.ShadowBlur/2)
		draw.Draw(layer, layer.Bounds(), shadow, shadow.Bounds().Min, draw.Over)
	}
	drawString(layer, face, run, run.Color, pad, baseline)

	var start float64
	switch run.Align {
	case core.AlignCenter:
		start = -float64(advance) / 2
	case core.AlignRight:
		start = -float64(advance)
	}
	s.composite(layer, start-float64(pad), -float64(ascent+descent)/2-float64(pad), 1, 1, p)
}

func drawString(dst *image.RGBA, face font.Face, run TextRun, c color.Color, x, baseline int) {
	if c == nil {
		c = color.Black
	}
	src := image.NewUniform(c)
	d := font.Drawer{Dst: dst, Src: src, Face: face, Dot: fixed.P(x, baseline)}
	d.DrawString(run.Content)
	if run.Underline {
		width := d.Dot.X.Ceil() - x
		thickness := int(math.Max(1, math.Round(run.Size/16)))
		line := image.Rect(x, baseline+2, x+width, baseline+2+thickness)
		draw.Draw(dst, line, src, image.Point{}, draw.Over)
	}
}

// composite paints layer onto the surface. (ox, oy) is where the layer's
// top-left corner sits in local coordinates and (sx, sy) scales it.
func (s *RasterSurface) composite(layer *image.RGBA, ox, oy, sx, sy float64, p Placement) {
	if p.Alpha < 1 {
		fade(layer, p.Alpha)
	}
	b := layer.Bounds()
	theta := p.radians()
	if theta == 0 {
		r := image.Rect(
			int(math.Round(p.CenterX+ox)),
			int(math.Round(p.CenterY+oy)),
			int(math.Round(p.CenterX+ox+float64(b.Dx())*sx)),
			int(math.Round(p.CenterY+oy+float64(b.Dy())*sy)),
		)
		if r.Dx() == b.Dx() && r.Dy() == b.Dy() {
			draw.Draw(s.img, r, layer, b.Min, draw.Over)
			return
		}
		scaler(r, b).Scale(s.img, r, layer, b, draw.Over, nil)
		return
	}
	sin, cos := math.Sincos(theta)
	m := f64.Aff3{
		cos * sx, -sin * sy, p.CenterX + cos*ox - sin*oy,
		sin * sx, cos * sy, p.CenterY + sin*ox + cos*oy,
	}
	draw.BiLinear.Transform(s.img, m, layer, b, draw.Over, nil)
}

// fade scales a premultiplied layer by alpha in place.
func fade(img *image.RGBA, alpha float64) {
	a := uint32(math.Round(alpha * 255))
	for i := range img.Pix {
		img.Pix[i] = uint8(uint32(img.Pix[i]) * a / 255)
	}
}

// toRGBA returns a fresh RGBA copy rooted at the origin, so callers may
// modify it.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func (s *RasterSurface) Encode(w io.Writer) error {
	return png.Encode(w, s.img)
}

// Close releases the surface's font faces.
func (s *RasterSurface) Close() error {
	s.fonts.Close()
	return nil
}

// maxKernelTemp bounds the intermediate buffer of the CatmullRom scaler,
// which holds dst width * src height entries.
const maxKernelTemp = 4 << 20

func scaler(dr, sr image.Rectangle) draw.Scaler {
	if int64(dr.Dx())*int64(sr.Dy()) > maxKernelTemp {
		return draw.ApproxBiLinear
	}
	return draw.CatmullRom
}
