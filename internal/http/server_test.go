package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMuxRoutes(t *testing.T) {
	h := NewMux(testEnv(t))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"readyz", http.MethodGet, "/readyz", "", http.StatusOK},
		{"model info", http.MethodGet, "/model", "", http.StatusOK},
		{"analyze", http.MethodPost, "/analyze", `{"Host": "example.com"}`, http.StatusOK},
		{"unknown path", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"preflight", http.MethodOptions, "/analyze", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.want)
			}
		})
	}
}
