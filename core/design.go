package core

import (
	"context"
	"errors"
	"path"
	"slices"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by stores when a design or asset does not exist
	// for the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey is returned for ids and names that are not a single
	// path segment.
	ErrInvalidKey = errors.New("invalid key")
)

type (
	// Design is a saved document as stored by the backend.
	Design struct {
		ID         string     `json:"id"`
		UserID     string     `json:"-"` // Not exposed in JSON responses, used internally.
		Name       string     `json:"name"`
		CanvasSize CanvasSize `json:"canvas_size"`
		Background string     `json:"background"`
		// BackgroundImage is optional and wins over Background when rendering.
		BackgroundImage string    `json:"background_image,omitempty"`
		Elements        Elements  `json:"elements"`
		CreatedAt       time.Time `json:"created_at"`
	}

	// DesignInput is the body of a create request.
	DesignInput struct {
		Name            string     `json:"name"`
		CanvasSize      CanvasSize `json:"canvas_size"`
		Background      string     `json:"background"`
		BackgroundImage string     `json:"background_image,omitempty"`
		Elements        Elements   `json:"elements"`
	}

	// DesignStore defines the persistence layer for saved designs.
	// All operations are scoped to a specific user.
	DesignStore interface {
		// List returns the user's designs, newest first, at most limit of them.
		List(ctx context.Context, userID string, limit int) ([]*Design, error)

		// Get returns a single design by its ID, ensuring it belongs to the user.
		Get(ctx context.Context, userID, id string) (*Design, error)

		// Create assigns an ID and creation time and stores the design.
		Create(ctx context.Context, design *Design) error

		// Delete removes a design. It returns ErrNotFound if nothing was deleted.
		Delete(ctx context.Context, userID, id string) error
	}

	// AssetStore keeps uploaded images.
	AssetStore interface {
		// Put stores data under name, replacing any previous asset.
		Put(ctx context.Context, name, contentType string, data []byte) error

		// Open returns the asset's bytes and content type.
		Open(ctx context.Context, name string) ([]byte, string, error)
	}
)

// Input returns the create payload for d.
func (d *Document) Input(name string) DesignInput {
	return DesignInput{
		Name:            name,
		CanvasSize:      d.Size,
		Background:      d.Background.Color,
		BackgroundImage: d.Background.ImageURL,
		Elements:        d.Clone().Elements,
	}
}

// Document converts a saved design back into an editable document. Missing
// size or background fall back to 800x600 on white.
func (d *Design) Document() *Document {
	doc := NewDocument(800, 600)
	if d.CanvasSize.Width > 0 && d.CanvasSize.Height > 0 {
		doc.Size = d.CanvasSize
	}
	if d.Background != "" {
		doc.Background.Color = d.Background
	}
	doc.Background.ImageURL = d.BackgroundImage
	for _, el := range d.Elements {
		doc.Elements = append(doc.Elements, el.Clone())
	}
	return doc
}

// NewDesign builds a storable design from a create request.
func NewDesign(userID string, in DesignInput) *Design {
	elements := in.Elements
	if elements == nil {
		elements = Elements{}
	}
	return &Design{
		UserID:          userID,
		Name:            in.Name,
		CanvasSize:      in.CanvasSize,
		Background:      in.Background,
		BackgroundImage: in.BackgroundImage,
		Elements:        elements,
	}
}

// Clone returns a deep copy of d.
func (d *Design) Clone() *Design {
	c := *d
	c.Elements = make(Elements, 0, len(d.Elements))
	for _, el := range d.Elements {
		c.Elements = append(c.Elements, el.Clone())
	}
	return &c
}

// NewestFirst sorts ds by creation time, newest first, and truncates the
// result to limit entries when limit is positive.
func NewestFirst(ds []*Design, limit int) []*Design {
	slices.SortStableFunc(ds, func(a, b *Design) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(ds) > limit {
		ds = ds[:limit]
	}
	return ds
}

// ValidKey reports whether k can be used as a file name or object key
// segment.
func ValidKey(k string) bool {
	return k != "" && k != "." && k != ".." && path.Base(k) == k && !strings.ContainsAny(k, "\\\x00")
}
