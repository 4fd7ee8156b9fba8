package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cli := &CLI{}
	k, err := kong.New(cli,
		kong.Name("ts2rs"),
		kong.Exit(func(code int) { t.Fatalf("exit(%d)", code) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := k.Parse(args)
	if err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	var out, errOut bytes.Buffer
	env := &Env{
		Stdout: &out,
		Stderr: &errOut,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	err = ctx.Run(env)
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const pointTS = "interface Point { x: number; y: number }\n"

const factoryTS = `interface Factory {
  new (id: number): Factory;
  label: string;
}
`

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	point := writeFile(t, dir, "point.ts", pointTS)
	factory := writeFile(t, dir, "factory.ts", factoryTS)
	broken := writeFile(t, dir, "broken.ts", "function f(a: number {\n")

	tests := []struct {
		name       string
		args       []string
		wantErr    string
		wantOut    []string
		wantStderr []string
	}{
		{
			name:    "compile file",
			args:    []string{"compile", point},
			wantOut: []string{"// Code generated by ts2rs from point.ts. DO NOT EDIT.", "pub struct Point {", "pub x: f64,"},
		},
		{
			name:    "compile with serde",
			args:    []string{"compile", "--serde", point},
			wantOut: []string{"Serialize", "Deserialize"},
		},
		{
			name:    "dump ast",
			args:    []string{"compile", "--dump-ast", point},
			wantOut: []string{"InterfaceDecl", `"Point"`},
		},
		{
			name:       "compile broken file",
			args:       []string{"compile", broken},
			wantErr:    "1 of 1 file(s) failed to compile",
			wantStderr: []string{"parse_error"},
		},
		{
			name:       "check warnings pass",
			args:       []string{"check", factory},
			wantStderr: []string{"unsupported_construct"},
		},
		{
			name:    "check strict fails on warnings",
			args:    []string{"check", "--strict", factory},
			wantErr: "warning(s) reported",
		},
		{
			name:    "invalid visibility",
			args:    []string{"check", "--visibility", "private", point},
			wantErr: "invalid config",
		},
		{
			name:    "missing input",
			args:    []string{"check", filepath.Join(dir, "missing.ts")},
			wantErr: "missing.ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := run(t, tt.args...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(stdout, want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout)
				}
			}
			for _, want := range tt.wantStderr {
				if !strings.Contains(stderr, want) {
					t.Errorf("stderr missing %q:\n%s", want, stderr)
				}
			}
		})
	}
}

func TestCompileProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/point.ts", pointTS)
	writeFile(t, dir, "src/geo/shape.ts", "export type Shape = { sides: number };\n")
	root := filepath.Join(dir, "src")

	if _, _, err := run(t, "compile", root); err == nil || !strings.Contains(err.Error(), "--out or --archive") {
		t.Fatalf("err = %v, want output flag error", err)
	}

	stdout, _, err := run(t, "compile", "--archive", root)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"-- Cargo.toml --", "-- src/lib.rs --", "-- src/geo/shape.rs --", "pub mod geo;"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("archive missing %q", want)
		}
	}

	out := filepath.Join(dir, "crate")
	if _, _, err := run(t, "compile", "-o", out, root); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"Cargo.toml", "src/lib.rs", "src/point.rs", "src/geo/mod.rs", "src/geo/shape.rs"} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(p))); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "0.1.0") && !strings.HasPrefix(stdout, "v") {
		t.Errorf("version = %q", stdout)
	}
}

func TestServeHandler(t *testing.T) {
	cmd := &ServeCmd{MaxBody: 1 << 20, CORSOrigins: []string{"http://play.test"}}
	h := cmd.handler(&Env{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(`{"source": "const n: number = 1;"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://play.test")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://play.test" {
		t.Errorf("allow-origin = %q", got)
	}
}
