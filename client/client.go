// Package client talks to the designer REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"designer-pro/core"
	"designer-pro/stockphoto"
)

type (
	Client struct {
		base  *url.URL
		token string
		http  *http.Client
	}

	// APIError is a non-2xx response.
	APIError struct {
		Status  int
		Message string
	}

	Upload struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
	}

	Settings struct {
		FacebookPageLink  string `json:"facebook_page_link"`
		InstagramPageLink string `json:"instagram_page_link"`
	}

	Option func(*Client)
)

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL is the server root the client was created with.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// AbsoluteURL resolves a server-relative path such as an upload URL.
func (c *Client) AbsoluteURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

func (c *Client) ListDesigns(ctx context.Context) ([]*core.Design, error) {
	var out []*core.Design
	if err := c.do(ctx, http.MethodGet, "/api/marketing/designs", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateDesign(ctx context.Context, in core.DesignInput) (*core.Design, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode design: %w", err)
	}
	var out core.Design
	if err := c.do(ctx, http.MethodPost, "/api/marketing/designs", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDesign(ctx context.Context, id string) (*core.Design, error) {
	var out core.Design
	if err := c.do(ctx, http.MethodGet, "/api/marketing/designs/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDesign(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/marketing/designs/"+url.PathEscape(id), nil, "", nil)
}

// UploadBackground sends r as the multipart field "file".
func (c *Client) UploadBackground(ctx context.Context, filename string, r io.Reader) (*Upload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var out Upload
	if err := c.do(ctx, http.MethodPost, "/api/marketing/upload-background", &buf, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchImages goes through the server's stock photo proxy.
func (c *Client) SearchImages(ctx context.Context, query string, perPage int) ([]stockphoto.Photo, error) {
	q := url.Values{}
	q.Set("query", query)
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	var out []stockphoto.Photo
	if err := c.do(ctx, http.MethodGet, "/api/marketing/images/search?"+q.Encode(), nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PublicSettings(ctx context.Context) (*Settings, error) {
	var out Settings
	if err := c.do(ctx, http.MethodGet, "/api/settings/public", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportDesign streams the server-rendered PNG of a saved design into w.
func (c *Client) ExportDesign(ctx context.Context, id string, w io.Writer) error {
	resp, err := c.send(ctx, http.MethodGet, "/api/marketing/designs/"+url.PathEscape(id)+"/export", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// send performs the request and turns non-2xx answers into *APIError.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(ref.Path).String(), body)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = ref.RawQuery
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil {
		switch {
		case body.Error != "":
			msg = body.Error
		case body.Detail != "":
			msg = body.Detail
		}
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
