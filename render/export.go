package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"designer-pro/canvas"
	"designer-pro/core"

	"github.com/mazznoer/csscolorparser"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultImageTimeout = 10 * time.Second
	DefaultParallelism  = 4
	// MaxDimension bounds either side of an exported canvas.
	MaxDimension = 10000
)

var ErrInvalidSize = errors.New("invalid canvas size")

type (
	// Skipped records an image that could not be painted. ID is empty for
	// the background image.
	Skipped struct {
		ID  core.ElementID
		Src string
		Err error
	}

	Result struct {
		Width, Height int
		// Painted counts elements drawn, including empty text.
		Painted int
		Skipped []Skipped
	}

	Exporter struct {
		loader       Loader
		imageTimeout time.Duration
		parallelism  int
		newSurface   func(width, height int) Surface
	}

	Option func(*Exporter)
)

func WithImageTimeout(d time.Duration) Option {
	return func(e *Exporter) { e.imageTimeout = d }
}

func WithParallelism(n int) Option {
	return func(e *Exporter) { e.parallelism = n }
}

// WithSurface replaces the raster backend.
func WithSurface(f func(width, height int) Surface) Option {
	return func(e *Exporter) { e.newSurface = f }
}

func NewExporter(loader Loader, opts ...Option) *Exporter {
	e := &Exporter{
		loader:       loader,
		imageTimeout: DefaultImageTimeout,
		parallelism:  DefaultParallelism,
		newSurface: func(w, h int) Surface {
			return NewRasterSurface(w, h)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parallelism < 1 {
		e.parallelism = 1
	}
	return e
}

// Export renders doc and writes it to w as PNG.
func (e *Exporter) Export(ctx context.Context, doc *core.Document, w io.Writer) (Result, error) {
	s, res, err := e.Render(ctx, doc)
	if err != nil {
		return res, err
	}
	if c, ok := s.(io.Closer); ok {
		defer c.Close()
	}
	if err := s.Encode(w); err != nil {
		return res, fmt.Errorf("encode: %w", err)
	}
	return res, nil
}

// Render paints doc onto a new surface. Image failures are reported in the
// result, not as an error.
func (e *Exporter) Render(ctx context.Context, doc *core.Document) (Surface, Result, error) {
	if doc == nil {
		return nil, Result{}, errors.New("nil document")
	}
	width, height := doc.Size.Width, doc.Size.Height
	res := Result{Width: width, Height: height}
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, res, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	images, err := e.prefetch(ctx, doc)
	if err != nil {
		return nil, res, err
	}

	s := e.newSurface(width, height)
	s.FillRect(image.Rect(0, 0, width, height), parseColor(doc.Background.Color, color.White))

	if src := doc.Background.ImageURL; src != "" {
		if ld := images[src]; ld.err != nil {
			res.Skipped = append(res.Skipped, e.skip("", src, ld.err))
		} else {
			s.DrawImage(ld.img, cover(ld.img.Bounds(), width, height))
		}
	}

	for _, el := range doc.Elements {
		if el == nil {
			continue
		}
		el = el.Clone()
		canvas.ClampElement(el)
		switch el := el.(type) {
		case *core.TextElement:
			s.DrawText(textRun(el), PlacementOf(el.Frame))
		case *core.ImageElement:
			ld := images[el.Src]
			if ld.err != nil {
				res.Skipped = append(res.Skipped, e.skip(el.ID(), el.Src, ld.err))
				continue
			}
			s.DrawImage(ld.img, PlacementOf(el.Frame))
		default:
			continue
		}
		res.Painted++
	}
	return s, res, nil
}

type loaded struct {
	img image.Image
	err error
}

// prefetch loads every distinct image source once.
func (e *Exporter) prefetch(ctx context.Context, doc *core.Document) (map[string]loaded, error) {
	srcs := map[string]struct{}{}
	if doc.Background.ImageURL != "" {
		srcs[doc.Background.ImageURL] = struct{}{}
	}
	for _, el := range doc.Elements {
		if img, ok := el.(*core.ImageElement); ok {
			srcs[img.Src] = struct{}{}
		}
	}

	out := make(map[string]loaded, len(srcs))
	if len(srcs) == 0 {
		return out, nil
	}
	if e.loader == nil {
		for src := range srcs {
			out[src] = loaded{err: errors.New("no image loader configured")}
		}
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for src := range srcs {
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(gctx, e.imageTimeout)
			defer cancel()
			img, err := e.loader.Load(lctx, src)
			if err == nil && img == nil {
				err = errors.New("loader returned no image")
			}
			mu.Lock()
			out[src] = loaded{img: img, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Exporter) skip(id core.ElementID, src string, err error) Skipped {
	logrus.WithFields(logrus.Fields{
		"element_id": id,
		"src":        src,
		"error":      err,
	}).Warn("Skipping image that failed to load")
	return Skipped{ID: id, Src: src, Err: err}
}

func textRun(el *core.TextElement) TextRun {
	return TextRun{
		Content:     el.Content,
		Family:      el.FontFamily,
		Size:        el.FontSize,
		Bold:        el.Bold,
		Italic:      el.Italic,
		Underline:   el.Underline,
		Align:       el.Align,
		Color:       parseColor(el.Color, color.Black),
		ShadowBlur:  el.ShadowBlur,
		ShadowColor: parseColor(el.ShadowColor, color.Black),
	}
}

// cover scales bounds to fill a width x height canvas, centred and cropped.
func cover(b image.Rectangle, width, height int) Placement {
	if b.Empty() {
		return Placement{}
	}
	scale := math.Max(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	return Placement{
		CenterX: float64(width) / 2,
		CenterY: float64(height) / 2,
		Width:   float64(b.Dx()) * scale,
		Height:  float64(b.Dy()) * scale,
		Alpha:   1,
	}
}

func parseColor(s string, fallback color.Color) color.Color {
	if s == "" {
		return fallback
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		logrus.WithField("color", s).Warn("Unparseable color, using fallback")
		return fallback
	}
	r, g, b, a := c.RGBA255()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// FileName derives the download name for a design.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), " .")
	if out == "" {
		out = "design"
	}
	return out + ".png"
}
