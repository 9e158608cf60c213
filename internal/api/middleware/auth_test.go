// internal/api/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testKey = "relay-admin-key"

// serveWithAuth runs a request carrying the given header key through
// the middleware in front of a handler that always returns 200.
func serveWithAuth(configured, provided string) *httptest.ResponseRecorder {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	wrapped := APIKeyAuth(configured)(handler)

	req := httptest.NewRequest("GET", "/v1/completions/recent", nil)
	if provided != "" {
		req.Header.Set("X-API-Key", provided)
	}
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)
	return w
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	w := serveWithAuth(testKey, testKey)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAPIKeyAuth_MissingKey(t *testing.T) {
	w := serveWithAuth(testKey, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
		t.Errorf("expected UNAUTHORIZED error code, body was: %s", w.Body.String())
	}
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	w := serveWithAuth(testKey, "relay-wrong-key")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAPIKeyAuth_EmptyConfiguredKey(t *testing.T) {
	w := serveWithAuth("", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when auth disabled, got %d", w.Code)
	}
}
