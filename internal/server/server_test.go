package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// wireResponse mirrors the envelope with diagnostics decoded loosely.
type wireResponse struct {
	Result *struct {
		File        string `json:"file"`
		Module      string `json:"module"`
		Output      string `json:"output"`
		UsesRegex   bool   `json:"uses_regex"`
		Diagnostics []struct {
			Severity string `json:"severity"`
			Code     string `json:"code"`
		} `json:"diagnostics"`
	} `json:"result"`
	Error *Error `json:"error"`
}

func newTestServer(t *testing.T, logs io.Writer) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(Options{Logger: logger, MaxBodyBytes: 4096}).Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, wireResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp wireResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, resp
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name       string
		req        func() *http.Request
		wantStatus int
		wantCode   ErrorCode
		want       []string
		diagCodes  []string
	}{
		{
			name: "post",
			req: func() *http.Request {
				body := `{"source": "interface User { id: number; name: string }", "serde": true}`
				return httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body))
			},
			wantStatus: http.StatusOK,
			want:       []string{"pub struct User {", "Serialize"},
		},
		{
			name: "get",
			req: func() *http.Request {
				q := url.Values{}
				q.Set("source", "enum Color { Red, Green }")
				q.Set("file", "colors.ts")
				q.Add("derives", "Debug")
				return httptest.NewRequest(http.MethodGet, "/compile?"+q.Encode(), nil)
			},
			wantStatus: http.StatusOK,
			want:       []string{"pub enum Color {", "from colors.ts"},
		},
		{
			name: "warnings are returned with output",
			req: func() *http.Request {
				body := `{"source": "const r = /(x/;"}`
				return httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body))
			},
			wantStatus: http.StatusOK,
			want:       []string{"todo!()"},
			diagCodes:  []string{"invalid_regex"},
		},
		{
			name: "missing source",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(`{"serde": true}`))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidArgument,
		},
		{
			name: "bad visibility",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/compile?source=let+x+%3D+1%3B&visibility=world", nil)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidArgument,
		},
		{
			name: "bad derive",
			req: func() *http.Request {
				body := `{"source": "let x = 1;", "derives": ["Debug Clone"]}`
				return httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidArgument,
		},
		{
			name: "malformed json",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(`{"source":`))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidArgument,
		},
		{
			name: "lex error",
			req: func() *http.Request {
				body := `{"source": "let s = \"open"}`
				return httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   CodeCompileFailed,
		},
		{
			name: "body too large",
			req: func() *http.Request {
				body := `{"source": "` + strings.Repeat("x", 8192) + `"}`
				return httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   CodeResourceExhausted,
		},
		{
			name: "method not allowed",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPut, "/compile", nil)
			},
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   CodeMethodNotAllowed,
		},
		{
			name: "unknown route",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/nope", nil)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			rec, resp := do(t, newTestServer(t, &logs), tt.req())
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d\n%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if tt.wantCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Fatalf("error = %+v, want code %s", resp.Error, tt.wantCode)
				}
				return
			}
			if resp.Result == nil {
				t.Fatalf("no result: %s", rec.Body.String())
			}
			for _, w := range tt.want {
				if !strings.Contains(resp.Result.Output, w) {
					t.Errorf("output missing %q\n%s", w, resp.Result.Output)
				}
			}
			var codes []string
			for _, d := range resp.Result.Diagnostics {
				codes = append(codes, d.Code)
			}
			if strings.Join(codes, ",") != strings.Join(tt.diagCodes, ",") {
				t.Errorf("diagnostic codes = %v, want %v", codes, tt.diagCodes)
			}
		})
	}
}

func TestCompileFailedCarriesDiagnostic(t *testing.T) {
	body := `{"source": "function f( {"}`
	_, resp := do(t, newTestServer(t, io.Discard), httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body)))
	if resp.Error == nil || resp.Error.Code != CodeCompileFailed {
		t.Fatalf("error = %+v, want compile_failed", resp.Error)
	}
	diags, ok := resp.Error.Details["diagnostics"].([]any)
	if !ok || len(diags) != 1 {
		t.Fatalf("details = %v, want one diagnostic", resp.Error.Details)
	}
	if d := diags[0].(map[string]any); d["code"] != "parse_error" || d["severity"] != "error" {
		t.Errorf("diagnostic = %v", d)
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, io.Discard).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	var body struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Result != "ok" {
		t.Errorf("body = %s (%v), want result ok", rec.Body.String(), err)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var logs bytes.Buffer
	h := newTestServer(t, &logs)
	do(t, h, httptest.NewRequest(http.MethodGet, "/compile?source=let+x+%3D+1%3B", nil))
	do(t, h, httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := logs.String()
	for _, w := range []string{
		"request started",
		"request completed",
		"path=/compile",
		"status=200",
		"request rejected",
		"status=404",
		"duration=",
	} {
		if !strings.Contains(out, w) {
			t.Errorf("logs missing %q\n%s", w, out)
		}
	}
}

func TestCustomErrorTransformer(t *testing.T) {
	h := New(Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ErrorTransformer: func(err error) *Error {
			if _, ok := err.(*Error); ok {
				return nil
			}
			return Errorf(CodeInternal, "hidden")
		},
	}).Handler()
	rec, resp := do(t, h, httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(`{"source": "let s = \"x"}`)))
	if rec.Code != http.StatusInternalServerError || resp.Error.Message != "hidden" {
		t.Errorf("status = %d, error = %+v", rec.Code, resp.Error)
	}
}
