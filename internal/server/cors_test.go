package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		cfg        CORSConfig
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
		wantMaxAge string
	}{
		{name: "no origin", method: "GET", wantStatus: http.StatusTeapot},
		{name: "wildcard", method: "POST", origin: "http://a.test", wantStatus: http.StatusTeapot, wantOrigin: "*"},
		{
			name:       "listed origin",
			cfg:        CORSConfig{Origins: []string{"http://a.test"}},
			method:     "GET",
			origin:     "http://a.test",
			wantStatus: http.StatusTeapot,
			wantOrigin: "http://a.test",
		},
		{
			name:       "unlisted origin",
			cfg:        CORSConfig{Origins: []string{"http://a.test"}},
			method:     "GET",
			origin:     "http://b.test",
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "preflight",
			cfg:        CORSConfig{MaxAge: time.Hour},
			method:     "OPTIONS",
			origin:     "http://a.test",
			preflight:  true,
			wantStatus: http.StatusNoContent,
			wantOrigin: "*",
			wantMaxAge: "3600",
		},
		{name: "plain options", method: "OPTIONS", origin: "http://a.test", wantStatus: http.StatusTeapot, wantOrigin: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/compile", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			w := httptest.NewRecorder()
			CORS(tt.cfg)(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Max-Age"); got != tt.wantMaxAge {
				t.Errorf("max-age = %q, want %q", got, tt.wantMaxAge)
			}
		})
	}
}
