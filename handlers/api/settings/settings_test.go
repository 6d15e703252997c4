package settings

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandlePublic(t *testing.T) {
	t.Setenv("FACEBOOK_PAGE_LINK", "https://facebook.com/shop")
	t.Setenv("INSTAGRAM_PAGE_LINK", "")

	rr := httptest.NewRecorder()
	HandlePublic(FromEnv())(rr, httptest.NewRequest(http.MethodGet, "/api/settings/public", nil))

	var got map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["facebook_page_link"] != "https://facebook.com/shop" {
		t.Errorf("unexpected facebook link %q", got["facebook_page_link"])
	}
	if v, ok := got["instagram_page_link"]; !ok || v != "" {
		t.Errorf("expected empty instagram link, got %q (present=%v)", v, ok)
	}
}
