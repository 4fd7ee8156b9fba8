// Package server serves the compiler over HTTP for playgrounds and editor
// integrations.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/ts2rs/ts2rs/compiler"
	"github.com/ts2rs/ts2rs/compiler/ir"
)

var (
	validate      = validator.New(validator.WithRequiredStructEnabled())
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// CompileRequest is the body of POST /compile and the query of GET /compile.
type CompileRequest struct {
	Source     string   `json:"source" schema:"source" validate:"required,max=1048576"`
	File       string   `json:"file" schema:"file" validate:"omitempty,max=255"`
	Runtime    bool     `json:"runtime" schema:"runtime"`
	Serde      bool     `json:"serde" schema:"serde"`
	Visibility string   `json:"visibility" schema:"visibility" validate:"omitempty,oneof=pub crate exported"`
	Derives    []string `json:"derives" schema:"derives"`
}

// CompileResponse is the result of a compilation.
type CompileResponse struct {
	File        string         `json:"file"`
	Module      string         `json:"module"`
	Output      string         `json:"output"`
	Diagnostics ir.Diagnostics `json:"diagnostics"`
	UsesRegex   bool           `json:"uses_regex"`
}

// Options configures a Server.
type Options struct {
	// Logger receives request logs. Default: slog.Default().
	Logger *slog.Logger

	// MaxBodyBytes limits POST bodies. Default: 2 MiB.
	MaxBodyBytes int64

	// Timeout bounds one compilation. Default: 10s.
	Timeout time.Duration

	// ErrorTransformer customizes error envelopes.
	ErrorTransformer ErrorTransformer

	// CORS, when set, allows browser pages on other origins to call the
	// server.
	CORS *CORSConfig
}

// Server compiles TypeScript sent over HTTP.
type Server struct {
	logger    *slog.Logger
	maxBytes  int64
	timeout   time.Duration
	transform ErrorTransformer
	cors      *CORSConfig
}

// New returns a Server with opts applied over the defaults.
func New(opts Options) *Server {
	s := &Server{
		logger:    opts.Logger,
		maxBytes:  opts.MaxBodyBytes,
		timeout:   opts.Timeout,
		transform: opts.ErrorTransformer,
		cors:      opts.CORS,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxBytes <= 0 {
		s.maxBytes = 2 << 20
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}
	return s
}

// Handler returns the HTTP handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /compile", s.handleCompilePost)
	mux.HandleFunc("GET /compile", s.handleCompileGet)
	mux.HandleFunc("/compile", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, POST")
		s.writeError(w, Errorf(CodeMethodNotAllowed, "method %s not allowed", r.Method))
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Result: "ok"}, s.logger)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, Errorf(CodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	var h http.Handler = mux
	if s.cors != nil {
		h = CORS(*s.cors)(h)
	}
	return Logging(s.logger)(h)
}

func (s *Server) handleCompilePost(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, err)
			return
		}
		s.writeError(w, Errorf(CodeInvalidArgument, "failed to decode body: %v", err))
		return
	}
	s.compile(w, r, &req)
}

func (s *Server) handleCompileGet(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := schemaDecoder.Decode(&req, r.URL.Query()); err != nil {
		s.writeError(w, Errorf(CodeInvalidArgument, "failed to decode query: %v", err))
		return
	}
	s.compile(w, r, &req)
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request, req *CompileRequest) {
	if err := validate.Struct(req); err != nil {
		s.writeError(w, err)
		return
	}
	file := req.File
	if file == "" {
		file = "input.ts"
	}
	cfg := &compiler.Config{
		Runtime:    req.Runtime,
		Serde:      req.Serde,
		Visibility: req.Visibility,
		Derives:    req.Derives,
		Logger:     s.logger,
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	type outcome struct {
		res *compiler.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := compiler.CompileSource(file, req.Source, cfg)
		done <- outcome{res, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		s.writeError(w, ctx.Err())
		return
	}
	if out.err != nil {
		s.writeError(w, out.err)
		return
	}
	if out.res.Failed() {
		s.writeError(w, out.res.Err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Result: CompileResponse{
		File:        file,
		Module:      out.res.Output,
		Output:      out.res.Source,
		Diagnostics: out.res.Diagnostics,
		UsesRegex:   out.res.UsesRegex,
	}}, s.logger)
}
