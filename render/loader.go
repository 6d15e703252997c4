package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxImageBytes caps a single fetched image.
	DefaultMaxImageBytes = 20 << 20
	// DefaultMaxPixels caps the decoded size of a single image.
	DefaultMaxPixels = 64 << 20
)

var (
	ErrUnsupportedSource = errors.New("unsupported image source")
	ErrImageTooLarge     = errors.New("image dimensions too large")
)

type (
	// Loader resolves an element source into a decoded image.
	Loader interface {
		Load(ctx context.Context, src string) (image.Image, error)
	}

	// AssetOpener reads uploaded assets by name. core.AssetStore satisfies it.
	AssetOpener interface {
		Open(ctx context.Context, name string) ([]byte, string, error)
	}

	// SourceLoader loads data URLs, http(s) URLs and uploaded assets.
	SourceLoader struct {
		client      *http.Client
		base        *url.URL
		assets      AssetOpener
		assetPrefix string
		maxBytes    int64
		maxPixels   int64
	}

	LoaderOption func(*SourceLoader)
)

// WithHTTPClient sets the client used for remote sources.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *SourceLoader) { l.client = c }
}

// WithBaseURL resolves relative sources against base.
func WithBaseURL(base *url.URL) LoaderOption {
	return func(l *SourceLoader) { l.base = base }
}

// WithAssets serves sources under prefix from an asset store instead of
// going over the network.
func WithAssets(prefix string, assets AssetOpener) LoaderOption {
	return func(l *SourceLoader) {
		l.assetPrefix = prefix
		l.assets = assets
	}
}

func WithMaxBytes(n int64) LoaderOption {
	return func(l *SourceLoader) { l.maxBytes = n }
}

// WithMaxPixels bounds width*height of decoded images.
func WithMaxPixels(n int64) LoaderOption {
	return func(l *SourceLoader) { l.maxPixels = n }
}

func NewLoader(opts ...LoaderOption) *SourceLoader {
	l := &SourceLoader{
		client:    http.DefaultClient,
		maxBytes:  DefaultMaxImageBytes,
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *SourceLoader) Load(ctx context.Context, src string) (image.Image, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedSource)
	case strings.HasPrefix(src, "data:"):
		data, err := decodeDataURL(src)
		if err != nil {
			return nil, err
		}
		return l.decode(data)
	case strings.HasPrefix(src, "blob:"):
		return nil, fmt.Errorf("%w: blob URLs only exist in the browser", ErrUnsupportedSource)
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse image source: %w", err)
	}
	if l.assets != nil && l.assetPrefix != "" && !u.IsAbs() && strings.HasPrefix(u.Path, l.assetPrefix) {
		data, _, err := l.assets.Open(ctx, strings.TrimPrefix(u.Path, l.assetPrefix))
		if err != nil {
			return nil, fmt.Errorf("open asset %s: %w", u.Path, err)
		}
		return l.decode(data)
	}
	if !u.IsAbs() {
		if l.base == nil {
			return nil, fmt.Errorf("%w: relative source %q without base URL", ErrUnsupportedSource, src)
		}
		u = l.base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
	return l.fetch(ctx, u.String())
}

func (l *SourceLoader) fetch(ctx context.Context, u string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("fetch %s: image larger than %d bytes", u, l.maxBytes)
	}
	return l.decode(data)
}

// decode checks the header dimensions before decoding pixels.
func (l *SourceLoader) decode(data []byte) (image.Image, error) {
	if !filetype.IsImage(data) {
		return nil, errors.New("source is not an image")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode image: empty %dx%d image", cfg.Width, cfg.Height)
	}
	if l.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > l.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// decodeDataURL handles data:[<mediatype>][;base64],<data>.
func decodeDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("data URL: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL: %w", err)
	}
	return []byte(s), nil
}
