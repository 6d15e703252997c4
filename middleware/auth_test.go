package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"designer-pro/core"
	"designer-pro/handlers/auth"
)

func token(t *testing.T, role core.Role) string {
	t.Helper()
	tok, err := auth.CreateJWT(&core.User{Subject: "u1", Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("CreateJWT failed: %v", err)
	}
	return tok
}

func TestAuthJWTAndRequireAdmin(t *testing.T) {
	auth.SetSecret([]byte("test-secret"))
	t.Cleanup(func() { auth.SetSecret(nil) })

	var seen string
	h := AuthJWT(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		seen = claims.Subject
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"customer", "Bearer " + token(t, core.RoleCustomer), http.StatusForbidden},
		{"admin", "Bearer " + token(t, core.RoleAdmin), http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rr.Code, tt.want)
		}
	}
	if seen != "u1" {
		t.Errorf("handler saw subject %q", seen)
	}
}
