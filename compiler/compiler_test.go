package compiler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"golang.org/x/tools/txtar"

	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/lexer"
	"github.com/ts2rs/ts2rs/compiler/sink"
)

// scenario is one testdata/*.txtar file. The archive comment lists options,
// one per line; the sections are input.ts, contains, absent and
// diagnostics, the last three holding one entry per line.
type scenario struct {
	cfg         Config
	input       string
	contains    []string
	absent      []string
	diagnostics []string
}

func loadScenario(t *testing.T, file string) scenario {
	t.Helper()
	ar, err := txtar.ParseFile(file)
	if err != nil {
		t.Fatal(err)
	}
	var s scenario
	for _, opt := range lines(string(ar.Comment)) {
		switch {
		case opt == "runtime":
			s.cfg.Runtime = true
		case opt == "serde":
			s.cfg.Serde = true
		case strings.HasPrefix(opt, "visibility="):
			s.cfg.Visibility = strings.TrimPrefix(opt, "visibility=")
		}
	}
	for _, f := range ar.Files {
		switch f.Name {
		case "input.ts":
			s.input = string(f.Data)
		case "contains":
			s.contains = lines(string(f.Data))
		case "absent":
			s.absent = lines(string(f.Data))
		case "diagnostics":
			s.diagnostics = lines(string(f.Data))
		default:
			t.Fatalf("%s: unknown section %q", file, f.Name)
		}
	}
	return s
}

// lines returns the trimmed non-empty lines of s.
func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scenarios in testdata")
	}
	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			s := loadScenario(t, file)
			r, err := CompileSource("input.ts", s.input, &s.cfg)
			if err != nil {
				t.Fatalf("CompileSource() error = %v", err)
			}

			for _, w := range s.contains {
				if !strings.Contains(r.Source, w) {
					t.Errorf("output missing %q\n--- output ---\n%s", w, r.Source)
				}
			}
			for _, nw := range s.absent {
				if strings.Contains(r.Source, nw) {
					t.Errorf("output should not contain %q\n--- output ---\n%s", nw, r.Source)
				}
			}

			got := codes(r.Diagnostics)
			want := append([]string(nil), s.diagnostics...)
			sort.Strings(want)
			if strings.Join(got, ",") != strings.Join(want, ",") {
				t.Errorf("diagnostic codes = %v, want %v\n%v", got, want, r.Diagnostics)
			}

			fatal := r.Diagnostics.HasErrors()
			if fatal != r.Failed() {
				t.Errorf("Failed() = %v with diagnostics %v", r.Failed(), r.Diagnostics)
			}
			if fatal && r.Source != "" {
				t.Errorf("fatal error produced output:\n%s", r.Source)
			}
			if fatal && len(r.Diagnostics) != 1 {
				t.Errorf("fatal error diagnostics = %v, want exactly one", r.Diagnostics)
			}
		})
	}
}

// codes returns the distinct diagnostic codes, sorted.
func codes(ds ir.Diagnostics) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range ds {
		if !seen[d.Code] {
			seen[d.Code] = true
			out = append(out, d.Code)
		}
	}
	sort.Strings(out)
	return out
}

func TestCompileSourceLexError(t *testing.T) {
	r, err := CompileSource("bad.ts", `let s = "open`, nil)
	if err != nil {
		t.Fatalf("CompileSource() error = %v", err)
	}
	var lexErr *lexer.LexError
	if !errors.As(r.Err, &lexErr) {
		t.Fatalf("Err = %v, want *lexer.LexError", r.Err)
	}
	if r.Diagnostics[0].Span != lexErr.Span {
		t.Errorf("diagnostic span = %v, want %v", r.Diagnostics[0].Span, lexErr.Span)
	}
}

func TestCompileSourceDeterministic(t *testing.T) {
	src := `
interface Point { x: number; y: number }
type Shape = { kind: "circle"; r: number } | { kind: "square"; side: number };
class Path {
  points: Point[] = [];
  add(p: Point): this { this.points.push(p); return this; }
}
`
	first, err := CompileSource("a.ts", src, &Config{Serde: true})
	if err != nil {
		t.Fatal(err)
	}
	for range 10 {
		again, _ := CompileSource("a.ts", src, &Config{Serde: true})
		if again.Source != first.Source {
			t.Fatalf("output differs between runs")
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "zero", cfg: Config{}},
		{name: "derives", cfg: Config{Derives: []string{"Debug", "serde::Serialize"}}},
		{name: "bad derive", cfg: Config{Derives: []string{"Debug, Clone"}}, wantErr: "rust_path"},
		{name: "bad visibility", cfg: Config{Visibility: "public"}, wantErr: "oneof"},
		{name: "negative jobs", cfg: Config{Jobs: -1}, wantErr: "gte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want validator.ValidationErrors", err)
			}
			if verrs[0].Tag() != tt.wantErr {
				t.Errorf("failed tag = %q, want %q", verrs[0].Tag(), tt.wantErr)
			}
		})
	}
}

func TestCompileSourceRejectsInvalidConfig(t *testing.T) {
	if _, err := CompileSource("a.ts", "let x = 1;", &Config{Visibility: "everyone"}); err == nil {
		t.Error("CompileSource() error = nil for an invalid visibility")
	}
}

func TestBuilderGenerate(t *testing.T) {
	b, err := FromSource("shapes.ts", "export enum Kind { A = \"a\" }").
		WithSerde().
		Derives("Debug", "Clone", "PartialEq").
		Visibility("exported").
		Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if b.Failed() {
		t.Fatalf("Generate() failed: %v", b.Diagnostics())
	}
	got := string(b.Output.Get("shapes.rs"))
	for _, w := range []string{"pub enum Kind {", `#[serde(rename = "a")]`} {
		if !strings.Contains(got, w) {
			t.Errorf("shapes.rs missing %q\n%s", w, got)
		}
	}
}

func TestBuilderFailedFileWritesNothing(t *testing.T) {
	b, err := FromSource("bad.ts", "class {").Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !b.Failed() {
		t.Error("Failed() = false for a parse error")
	}
	if paths := b.Output.Paths(); len(paths) != 0 {
		t.Errorf("files written: %v", paths)
	}
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCompileProject(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ts2rs.toml":              "exclude = [\"*.test.ts\"]\n\n[package]\nname = \"demo\"\n\n[compile]\nserde = true\n",
		"index.ts":                "export const VERSION = \"1.0\";\n",
		"models/user.ts":          "export interface User { id: number; email: string }\n",
		"models/userStore.ts":     "export class UserStore { users: string[] = []; add(u: string): void { this.users.push(u); } }\n",
		"models/user.test.ts":     "test();\n",
		"util/match.ts":           "export const isId = (s: string): boolean => /^\\d+$/.test(s);\n",
		"broken.ts":               "function (\n",
		"types.d.ts":              "declare const x: number;\n",
		"node_modules/m/index.ts": "export {}\n",
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mem := sink.NewMemory()
	b, err := CompileProject(context.Background(), root, &Config{Jobs: 2, Logger: logger}, mem)
	if err != nil {
		t.Fatalf("CompileProject() error = %v", err)
	}

	var inputs []string
	for _, r := range b.Files {
		inputs = append(inputs, r.Input)
	}
	if got := strings.Join(inputs, ","); got != "broken.ts,index.ts,models/user.ts,models/userStore.ts,util/match.ts" {
		t.Errorf("inputs = %s", got)
	}
	if !b.Failed() {
		t.Error("Failed() = false with a broken file")
	}

	wantPaths := []string{
		"Cargo.toml",
		"src/index.rs",
		"src/lib.rs",
		"src/models/mod.rs",
		"src/models/user.rs",
		"src/models/user_store.rs",
		"src/util/match_.rs",
		"src/util/mod.rs",
	}
	if got := strings.Join(mem.Paths(), ","); got != strings.Join(wantPaths, ",") {
		t.Errorf("written = %s\nwant      %s", got, strings.Join(wantPaths, ","))
	}

	lib := string(mem.Get("src/lib.rs"))
	if !strings.Contains(lib, "pub mod index;\npub mod models;\npub mod util;\n") || strings.Contains(lib, "broken") {
		t.Errorf("lib.rs =\n%s", lib)
	}
	cargo := string(mem.Get("Cargo.toml"))
	for _, w := range []string{"name = 'demo'", "serde", "regex"} {
		if !strings.Contains(cargo, w) {
			t.Errorf("Cargo.toml missing %q\n%s", w, cargo)
		}
	}
	if user := string(mem.Get("src/models/user.rs")); !strings.Contains(user, "Serialize") {
		t.Errorf("manifest serde setting not applied:\n%s", user)
	}
	if !strings.Contains(logs.String(), "file=models/user.ts") {
		t.Errorf("logs missing per-file entries:\n%s", logs.String())
	}
}

func TestCompileProjectEmpty(t *testing.T) {
	_, err := CompileProject(context.Background(), t.TempDir(), nil, sink.NewMemory())
	if err == nil || !strings.Contains(err.Error(), "no TypeScript files") {
		t.Errorf("CompileProject(empty) error = %v", err)
	}
}

func TestBuilderToDir(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"point.ts": "export interface Point { x: number; y: number }\n"})
	out := t.TempDir()

	b, err := FromDir(src).Jobs(1).ToDir(context.Background(), out)
	if err != nil {
		t.Fatalf("ToDir() error = %v", err)
	}
	if b.Failed() {
		t.Fatalf("ToDir() failed: %v", b.Diagnostics())
	}
	for _, p := range []string{"Cargo.toml", "src/lib.rs", "src/point.rs"} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(p))); err != nil {
			t.Errorf("%s not written: %v", p, err)
		}
	}
}
