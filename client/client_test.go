package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"designer-pro/core"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithToken("tok"), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestCreateAndListDesigns(t *testing.T) {
	var saved core.DesignInput
	mux := http.NewServeMux()
	mux.HandleFunc("/api/marketing/designs", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&saved); err != nil {
				t.Errorf("decode body: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "d1", "name": saved.Name, "elements": []any{}})
		case http.MethodGet:
			w.Write([]byte(`[{"id":"d1","name":"Sale","canvas_size":{"width":800,"height":600},"background":"#ffffff","elements":[]}]`))
		}
	})
	c := newTestClient(t, mux)

	doc := core.NewDocument(800, 600)
	doc.Elements = append(doc.Elements, core.NewText("Hi"))
	d, err := c.CreateDesign(context.Background(), doc.Input("Sale"))
	if err != nil {
		t.Fatalf("CreateDesign failed: %v", err)
	}
	if d.ID != "d1" || saved.Name != "Sale" || len(saved.Elements) != 1 {
		t.Errorf("unexpected round trip: %+v / %+v", d, saved)
	}

	list, err := c.ListDesigns(context.Background())
	if err != nil {
		t.Fatalf("ListDesigns failed: %v", err)
	}
	if len(list) != 1 || list[0].CanvasSize.Width != 800 {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/marketing/designs/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Design not found"}`))
	})
	mux.HandleFunc("/api/marketing/designs/legacy", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"Admin access required"}`))
	})
	c := newTestClient(t, mux)

	_, err := c.GetDesign(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Design not found" {
		t.Errorf("unexpected error %+v", apiErr)
	}

	err = c.DeleteDesign(context.Background(), "legacy")
	if !errors.As(err, &apiErr) || apiErr.Message != "Admin access required" {
		t.Errorf("expected detail message, got %v", err)
	}
}

func TestUploadBackground(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/marketing/upload-background", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "bg.png" || string(data) != "PNGDATA" {
			t.Errorf("unexpected upload %s %q", hdr.Filename, data)
		}
		w.Write([]byte(`{"filename":"abc.png","url":"/uploads/backgrounds/abc.png"}`))
	})
	c := newTestClient(t, mux)

	up, err := c.UploadBackground(context.Background(), "bg.png", strings.NewReader("PNGDATA"))
	if err != nil {
		t.Fatalf("UploadBackground failed: %v", err)
	}
	if up.URL != "/uploads/backgrounds/abc.png" {
		t.Errorf("unexpected url %s", up.URL)
	}
	abs := c.AbsoluteURL(up.URL)
	if !strings.HasPrefix(abs, c.BaseURL().String()) || !strings.HasSuffix(abs, up.URL) {
		t.Errorf("AbsoluteURL = %s", abs)
	}
	if got := c.AbsoluteURL("https://cdn.example.com/a.png"); got != "https://cdn.example.com/a.png" {
		t.Errorf("absolute urls must pass through, got %s", got)
	}
}

func TestSearchImagesAndSettings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/marketing/images/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "flowers" || r.URL.Query().Get("per_page") != "12" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"id":"p1","thumbnail_url":"t","full_url":"f","description":"d"}]`))
	})
	mux.HandleFunc("/api/settings/public", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"facebook_page_link":"https://facebook.com/shop","instagram_page_link":""}`))
	})
	mux.HandleFunc("/api/marketing/designs/d1/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})
	c := newTestClient(t, mux)

	photos, err := c.SearchImages(context.Background(), "flowers", 12)
	if err != nil || len(photos) != 1 || photos[0].FullURL != "f" {
		t.Fatalf("SearchImages = %+v, %v", photos, err)
	}

	s, err := c.PublicSettings(context.Background())
	if err != nil || s.FacebookPageLink != "https://facebook.com/shop" {
		t.Fatalf("PublicSettings = %+v, %v", s, err)
	}

	var buf bytes.Buffer
	if err := c.ExportDesign(context.Background(), "d1", &buf); err != nil || buf.String() != "png-bytes" {
		t.Fatalf("ExportDesign = %q, %v", buf.String(), err)
	}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "ftp://x", "::"} {
		if _, err := New(u); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}
