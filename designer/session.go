// Package designer drives one editing session: it owns the canvas state and
// talks to the backend, the upload endpoint and the photo search. Every
// collaborator failure is returned and also reported as a Notice.
package designer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"designer-pro/canvas"
	"designer-pro/client"
	"designer-pro/core"
	"designer-pro/render"
	"designer-pro/stockphoto"
)

const (
	DefaultTextContent = "Double click to edit"
	DefaultPerPage     = 12
)

var (
	// ErrValidation is returned when input is rejected before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrStaleResponse is returned for a search answered after a newer one was issued.
	ErrStaleResponse = errors.New("stale response")
	ErrNotConfigured = errors.New("collaborator not configured")
)

type (
	DesignService interface {
		ListDesigns(ctx context.Context) ([]*core.Design, error)
		CreateDesign(ctx context.Context, in core.DesignInput) (*core.Design, error)
		GetDesign(ctx context.Context, id string) (*core.Design, error)
		DeleteDesign(ctx context.Context, id string) error
	}

	Uploader interface {
		UploadBackground(ctx context.Context, filename string, r io.Reader) (*client.Upload, error)
		AbsoluteURL(ref string) string
	}

	PhotoSearcher interface {
		Search(ctx context.Context, query string, perPage int) ([]stockphoto.Photo, error)
	}

	// PhotoSearchFunc adapts a search function, such as client.Client.SearchImages.
	PhotoSearchFunc func(ctx context.Context, query string, perPage int) ([]stockphoto.Photo, error)

	SettingsSource interface {
		PublicSettings(ctx context.Context) (*client.Settings, error)
	}

	Config struct {
		Designs  DesignService
		Uploads  Uploader
		Photos   PhotoSearcher
		Settings SettingsSource
		Loader   render.Loader
		Notifier Notifier
		PerPage  int
		Export   []render.Option
	}

	Session struct {
		store    *canvas.Store
		editor   *canvas.Editor
		exporter *render.Exporter
		cfg      Config

		mu      sync.Mutex
		seq     uint64
		results []stockphoto.Photo
		designs []*core.Design
		name    string
	}
)

func (f PhotoSearchFunc) Search(ctx context.Context, query string, perPage int) ([]stockphoto.Photo, error) {
	return f(ctx, query, perPage)
}

// New starts a session on an empty 800x600 white canvas.
func New(cfg Config) *Session {
	if cfg.Notifier == nil {
		cfg.Notifier = LogNotifier{}
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	store := canvas.NewStore(800, 600, core.Background{Color: core.DefaultBackgroundColor})
	return &Session{
		store:    store,
		editor:   canvas.NewEditor(store),
		exporter: render.NewExporter(cfg.Loader, cfg.Export...),
		cfg:      cfg,
	}
}

func (s *Session) Store() *canvas.Store   { return s.store }
func (s *Session) Editor() *canvas.Editor { return s.editor }

func (s *Session) notify(level Level, format string, args ...any) {
	s.cfg.Notifier.Notify(Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// AddText inserts a text element in the editor's current style and selects it.
func (s *Session) AddText() core.ElementID {
	el := s.editor.NewText(DefaultTextContent)
	s.store.AddElement(el)
	return el.ID()
}

// AddImage inserts an image element for url and selects it.
func (s *Session) AddImage(url string) core.ElementID {
	el := core.NewImage(url)
	s.store.AddElement(el)
	return el.ID()
}

// UploadImage uploads r and adds it as an image element. On failure the
// document is left untouched.
func (s *Session) UploadImage(ctx context.Context, filename string, r io.Reader) (core.ElementID, error) {
	url, err := s.upload(ctx, filename, r)
	if err != nil {
		return "", err
	}
	id := s.AddImage(url)
	s.notify(LevelSuccess, "Image uploaded successfully!")
	return id, nil
}

// UploadBackground uploads r and uses it as the canvas background image.
func (s *Session) UploadBackground(ctx context.Context, filename string, r io.Reader) error {
	url, err := s.upload(ctx, filename, r)
	if err != nil {
		return err
	}
	s.store.SetBackgroundImage(url)
	s.notify(LevelSuccess, "Background uploaded successfully!")
	return nil
}

func (s *Session) upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if s.cfg.Uploads == nil {
		s.notify(LevelError, "Failed to upload image")
		return "", fmt.Errorf("upload: %w", ErrNotConfigured)
	}
	up, err := s.cfg.Uploads.UploadBackground(ctx, filename, r)
	if err != nil {
		s.notify(LevelError, "Failed to upload image")
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	return s.cfg.Uploads.AbsoluteURL(up.URL), nil
}

// Search queries the photo API. A blank query does nothing. When several
// searches overlap only the most recently issued one may update Results;
// the others return ErrStaleResponse.
func (s *Session) Search(ctx context.Context, query string) ([]stockphoto.Photo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if s.cfg.Photos == nil {
		s.notify(LevelError, "Failed to search images")
		return nil, fmt.Errorf("search: %w", ErrNotConfigured)
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	photos, err := s.cfg.Photos.Search(ctx, query, s.cfg.PerPage)

	s.mu.Lock()
	stale := seq != s.seq
	if !stale && err == nil {
		s.results = photos
	}
	s.mu.Unlock()

	switch {
	case stale:
		return nil, ErrStaleResponse
	case err != nil:
		s.notify(LevelError, "Failed to search images")
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return photos, nil
}

// Results is the last accepted search result.
func (s *Session) Results() []stockphoto.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stockphoto.Photo(nil), s.results...)
}

// Save stores the current document under name. A blank name is rejected
// without contacting the backend.
func (s *Session) Save(ctx context.Context, name string) (*core.Design, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.notify(LevelError, "Please enter a design name")
		return nil, fmt.Errorf("%w: design name is required", ErrValidation)
	}
	if s.cfg.Designs == nil {
		s.notify(LevelError, "Failed to save design")
		return nil, fmt.Errorf("save: %w", ErrNotConfigured)
	}
	d, err := s.cfg.Designs.CreateDesign(ctx, s.store.Document().Input(name))
	if err != nil {
		s.notify(LevelError, "Failed to save design")
		return nil, fmt.Errorf("save %q: %w", name, err)
	}

	s.mu.Lock()
	s.name = name
	s.designs = append([]*core.Design{d}, s.designs...)
	s.mu.Unlock()
	s.notify(LevelSuccess, "Design saved successfully!")
	return d, nil
}

// Designs fetches the saved designs, newest first.
func (s *Session) Designs(ctx context.Context) ([]*core.Design, error) {
	if s.cfg.Designs == nil {
		s.notify(LevelError, "Failed to load designs")
		return nil, fmt.Errorf("list designs: %w", ErrNotConfigured)
	}
	ds, err := s.cfg.Designs.ListDesigns(ctx)
	if err != nil {
		s.notify(LevelError, "Failed to load designs")
		return nil, fmt.Errorf("list designs: %w", err)
	}
	s.mu.Lock()
	s.designs = ds
	s.mu.Unlock()
	return ds, nil
}

// SavedDesigns is the list from the last Designs or Save call.
func (s *Session) SavedDesigns() []*core.Design {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*core.Design(nil), s.designs...)
}

// Open fetches a design by id and loads it.
func (s *Session) Open(ctx context.Context, id string) error {
	if s.cfg.Designs == nil {
		s.notify(LevelError, "Failed to load design")
		return fmt.Errorf("open: %w", ErrNotConfigured)
	}
	d, err := s.cfg.Designs.GetDesign(ctx, id)
	if err != nil {
		s.notify(LevelError, "Failed to load design")
		return fmt.Errorf("open %s: %w", id, err)
	}
	s.Load(d)
	return nil
}

// Load replaces the document with a saved design and clears the selection.
func (s *Session) Load(d *core.Design) {
	s.store.Load(d.Document())
	s.mu.Lock()
	s.name = d.Name
	s.mu.Unlock()
	s.notify(LevelSuccess, "Loaded: %s", d.Name)
}

// Delete removes a saved design. The open document is not touched.
func (s *Session) Delete(ctx context.Context, id string) error {
	if s.cfg.Designs == nil {
		s.notify(LevelError, "Failed to delete design")
		return fmt.Errorf("delete: %w", ErrNotConfigured)
	}
	if err := s.cfg.Designs.DeleteDesign(ctx, id); err != nil {
		s.notify(LevelError, "Failed to delete design")
		return fmt.Errorf("delete %s: %w", id, err)
	}
	s.mu.Lock()
	kept := s.designs[:0]
	for _, d := range s.designs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.designs = kept
	s.mu.Unlock()
	s.notify(LevelSuccess, "Design deleted")
	return nil
}

// ApplyTemplate resets the canvas to a template. All elements are dropped.
func (s *Session) ApplyTemplate(name string) error {
	if err := canvas.ApplyTemplate(s.store, name); err != nil {
		s.notify(LevelError, "Unknown template: %s", name)
		return err
	}
	s.notify(LevelSuccess, "Template loaded: %s", name)
	return nil
}

// Export renders the document as PNG into w and returns the download name.
func (s *Session) Export(ctx context.Context, w io.Writer) (string, render.Result, error) {
	res, err := s.exporter.Export(ctx, s.store.Document(), w)
	if err != nil {
		s.notify(LevelError, "Failed to export design")
		return "", res, fmt.Errorf("export: %w", err)
	}
	if n := len(res.Skipped); n > 0 {
		s.notify(LevelWarning, "%d image(s) could not be loaded and were left out", n)
	}
	s.mu.Lock()
	name := s.name
	s.mu.Unlock()
	return render.FileName(name), res, nil
}

// ShareTarget returns the configured page link for "facebook" or
// "instagram". The caller exports and opens the link.
func (s *Session) ShareTarget(ctx context.Context, platform string) (string, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	var label string
	switch platform {
	case "facebook":
		label = "Facebook"
	case "instagram":
		label = "Instagram"
	default:
		s.notify(LevelError, "Unsupported platform: %s", platform)
		return "", fmt.Errorf("%w: unsupported platform %q", ErrValidation, platform)
	}
	if s.cfg.Settings == nil {
		s.notify(LevelError, "Failed to load settings")
		return "", fmt.Errorf("share: %w", ErrNotConfigured)
	}
	settings, err := s.cfg.Settings.PublicSettings(ctx)
	if err != nil {
		s.notify(LevelError, "Failed to load settings")
		return "", fmt.Errorf("share: %w", err)
	}
	link := settings.FacebookPageLink
	if platform == "instagram" {
		link = settings.InstagramPageLink
	}
	if link == "" {
		s.notify(LevelError, "%s page link not configured. Please add it in Settings.", label)
		return "", fmt.Errorf("%w: %s page link not configured", ErrValidation, platform)
	}
	s.notify(LevelSuccess, "Opening %s. Upload the downloaded image and add your narration!", platform)
	return link, nil
}
