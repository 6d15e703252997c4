package designs

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"designer-pro/canvas"
	"designer-pro/core"
	"designer-pro/handlers/auth"
	"designer-pro/middleware"
	"designer-pro/render"
	"designer-pro/stores/memory"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

type recorder struct {
	saved   []string
	deleted []string
}

func (p *recorder) DesignSaved(userID string, d *core.Design) { p.saved = append(p.saved, d.ID) }
func (p *recorder) DesignDeleted(userID, id string)           { p.deleted = append(p.deleted, id) }

func withUser(r *http.Request, sub string) *http.Request {
	claims := &auth.AppClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}, Role: core.RoleAdmin}
	return r.WithContext(context.WithValue(r.Context(), middleware.ClaimsContextKey, claims))
}

func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func create(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, *core.Design) {
	t.Helper()
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/marketing/designs", strings.NewReader(body)), "admin-1")
	rr := httptest.NewRecorder()
	h(rr, req)
	if rr.Code != http.StatusOK {
		return rr, nil
	}
	var d core.Design
	if err := json.NewDecoder(rr.Body).Decode(&d); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rr, &d
}

func TestHandleCreateAndGet(t *testing.T) {
	store := memory.NewStore()
	pub := &recorder{}

	rr, d := create(t, HandleCreate(store, pub), `{
		"name": "Summer Sale",
		"canvas_size": {"width": 1080, "height": 1080},
		"background": "#ff0000",
		"elements": [{"id": "t1", "type": "text", "content": "Hi", "x": 10, "y": 20, "width": 200, "height": 50, "rotation": 0, "opacity": 1}]
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if d.ID == "" || d.Name != "Summer Sale" || len(d.Elements) != 1 {
		t.Fatalf("unexpected design %+v", d)
	}
	if len(pub.saved) != 1 || pub.saved[0] != d.ID {
		t.Errorf("publisher saw %v", pub.saved)
	}

	req := withID(withUser(httptest.NewRequest(http.MethodGet, "/", nil), "admin-1"), d.ID)
	rr = httptest.NewRecorder()
	HandleGet(store)(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	// Another user cannot see it.
	req = withID(withUser(httptest.NewRequest(http.MethodGet, "/", nil), "admin-2"), d.ID)
	rr = httptest.NewRecorder()
	HandleGet(store)(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for other user, got %d", rr.Code)
	}
}

func TestHandleCreate_Validation(t *testing.T) {
	store := memory.NewStore()
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"blank name", `{"name": "   "}`},
		{"negative size", `{"name": "x", "canvas_size": {"width": -1, "height": 10}}`},
		{"too large", `{"name": "x", "canvas_size": {"width": 20000, "height": 10}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr, _ := create(t, HandleCreate(store, nil), tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rr.Code)
			}
		})
	}

	rr, d := create(t, HandleCreate(store, nil), `{"name": "Defaults"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if d.CanvasSize != (core.CanvasSize{Width: 800, Height: 600}) || d.Background != core.DefaultBackgroundColor {
		t.Errorf("defaults not applied: %+v", d)
	}
}

func TestHandleList(t *testing.T) {
	store := memory.NewStore()
	h := HandleCreate(store, nil)
	create(t, h, `{"name": "first"}`)
	create(t, h, `{"name": "second"}`)

	rr := httptest.NewRecorder()
	HandleList(store)(rr, withUser(httptest.NewRequest(http.MethodGet, "/", nil), "admin-1"))
	var list []*core.Design
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].Name != "second" {
		t.Errorf("expected newest first, got %+v", list)
	}

	rr = httptest.NewRecorder()
	HandleList(store)(rr, withUser(httptest.NewRequest(http.MethodGet, "/", nil), "nobody"))
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	HandleList(store)(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without claims, got %d", rr.Code)
	}
}

func TestHandleDelete(t *testing.T) {
	store := memory.NewStore()
	pub := &recorder{}
	_, d := create(t, HandleCreate(store, nil), `{"name": "gone"}`)

	del := func() int {
		rr := httptest.NewRecorder()
		HandleDelete(store, pub)(rr, withID(withUser(httptest.NewRequest(http.MethodDelete, "/", nil), "admin-1"), d.ID))
		return rr.Code
	}
	if code := del(); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := del(); code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", code)
	}
	if len(pub.deleted) != 1 {
		t.Errorf("expected one delete event, got %v", pub.deleted)
	}
}

func TestHandleExport(t *testing.T) {
	store := memory.NewStore()
	_, d := create(t, HandleCreate(store, nil), `{
		"name": "Poster/1",
		"canvas_size": {"width": 120, "height": 80},
		"elements": [{"id": "i1", "type": "image", "src": "https://invalid.example/x.png", "x": 0, "y": 0, "width": 10, "height": 10, "rotation": 0, "opacity": 1}]
	}`)

	rr := httptest.NewRecorder()
	req := withID(withUser(httptest.NewRequest(http.MethodGet, "/", nil), "admin-1"), d.ID)
	HandleExport(store, render.NewExporter(nil))(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, `"Poster_1.png"`) {
		t.Errorf("unexpected disposition %q", cd)
	}
	if got := rr.Header().Get("X-Skipped-Images"); got != "1" {
		t.Errorf("expected one skipped image, got %q", got)
	}
	img, err := png.Decode(rr.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("unexpected bounds %v", b)
	}
}

func TestHandleTemplates(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleTemplates()(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	var got []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0]["name"] != "Instagram Post" {
		t.Errorf("unexpected templates %v", got)
	}
}

func TestHandleCreate_ClampsElementAttributes(t *testing.T) {
	store := memory.NewStore()
	rr, d := create(t, HandleCreate(store, nil), `{
		"name": "Huge",
		"elements": [
			{"id": "t1", "type": "text", "content": "SALE", "fontSize": 1e6, "shadowBlur": 1e9, "x": 0, "y": 0, "width": 1e12, "height": -5, "rotation": 725, "opacity": 3},
			{"id": "i1", "type": "image", "src": "/uploads/backgrounds/x.png", "x": -1e9, "y": 0, "width": 1e7, "height": 1e7, "rotation": 0, "opacity": 1}
		]
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	stored, err := store.Get(context.Background(), "admin-1", d.ID)
	if err != nil {
		t.Fatal(err)
	}
	txt, ok := stored.Elements[0].(*core.TextElement)
	if !ok {
		t.Fatalf("unexpected element %#v", stored.Elements[0])
	}
	if txt.FontSize != canvas.FontSizeRange.Max || txt.ShadowBlur != canvas.ShadowBlurRange.Max {
		t.Errorf("text style not clamped: size=%v blur=%v", txt.FontSize, txt.ShadowBlur)
	}
	if txt.Width != canvas.SizeRange.Max || txt.Height != canvas.SizeRange.Min {
		t.Errorf("text frame not clamped: %vx%v", txt.Width, txt.Height)
	}
	if txt.Rotation != 5 || txt.Opacity != 1 {
		t.Errorf("rotation/opacity not normalized: %v %v", txt.Rotation, txt.Opacity)
	}
	img := stored.Elements[1].Bounds()
	if img.X != canvas.PositionRange.Min || img.Width != canvas.SizeRange.Max {
		t.Errorf("image frame not clamped: %+v", *img)
	}

	rr = httptest.NewRecorder()
	req := withID(withUser(httptest.NewRequest(http.MethodGet, "/", nil), "admin-1"), d.ID)
	HandleExport(store, render.NewExporter(nil))(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("export expected 200, got %d", rr.Code)
	}
}
