// Package compiler translates TypeScript sources into Rust.
//
// A single file goes through the lexer, the parser with its type mapper,
// and the Rust generator. Lex and parse errors are fatal for that file and
// produce no output; everything else is reported as a warning next to the
// generated code. In project mode every file is compiled independently and
// in parallel, and the crate files that tie the modules together are
// generated alongside.
package compiler

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/parser"
	"github.com/ts2rs/ts2rs/compiler/rust"
	"github.com/ts2rs/ts2rs/compiler/sink"
	"github.com/ts2rs/ts2rs/internal/project"
)

// Result is the outcome of compiling one file.
type Result struct {
	// Input is the file name, relative to the project root in project mode.
	Input string

	// Output is the path the Rust module is written to.
	Output string

	// Source is the generated Rust; empty when Err is set.
	Source string

	// Diagnostics are the warnings, or the single error when Err is set.
	Diagnostics ir.Diagnostics

	// UsesRegex is set when Source needs the regex crate.
	UsesRegex bool

	// Err is the fatal *lexer.LexError or *parser.ParseError.
	Err error

	Duration time.Duration
}

// Failed reports whether the file produced no output.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Build is the outcome of a compilation run.
type Build struct {
	// Files holds one result per input, in input order.
	Files []*Result

	// Support lists the crate files written besides the modules.
	Support []string

	// Output holds the written files when the build was made by
	// Builder.Generate.
	Output *sink.Memory
}

// Diagnostics returns the diagnostics of every file, in input order.
func (b *Build) Diagnostics() ir.Diagnostics {
	var out ir.Diagnostics
	for _, r := range b.Files {
		out = append(out, r.Diagnostics...)
	}
	return out
}

// Failed reports whether any file failed to compile.
func (b *Build) Failed() bool {
	for _, r := range b.Files {
		if r.Failed() {
			return true
		}
	}
	return false
}

// CompileSource compiles one file held in memory. The returned error is
// only for an invalid configuration; a file that fails to lex or parse
// yields a Result with Err set.
func CompileSource(file, src string, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := applyConfigDefaults(cfg)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r := compile(file, src, c)
	r.Output = path.Base(project.ModulePath(path.Base(file)))
	return r, nil
}

func compile(file, src string, cfg *Config) *Result {
	start := time.Now()
	r := &Result{Input: file}
	defer func() { r.Duration = time.Since(start) }()

	prog, err := parser.Parse(file, src)
	if err != nil {
		r.Err = err
		var pe ir.PositionedError
		if errors.As(err, &pe) {
			r.Diagnostics = ir.Diagnostics{ir.ErrorDiagnostic(pe)}
		}
		return r
	}
	out := rust.Generate(prog, cfg.generatorOptions())
	r.Source = out.Source
	r.Diagnostics = out.Diagnostics
	r.UsesRegex = out.UsesRegex
	return r
}

// compileFile compiles one in-memory file and writes its module to out.
func compileFile(ctx context.Context, file, src string, cfg *Config, out sink.Sink) (*Build, error) {
	r, err := CompileSource(file, src, cfg)
	if err != nil {
		return nil, err
	}
	b := &Build{Files: []*Result{r}}
	if r.Failed() {
		return b, nil
	}
	if err := out.WriteFile(ctx, r.Output, []byte(r.Source)); err != nil {
		return nil, err
	}
	return b, nil
}

// Generate runs the build and keeps the output in memory.
func (b *Builder) Generate(ctx context.Context) (*Build, error) {
	mem := sink.NewMemory()
	build, err := b.WriteTo(ctx, mem)
	if err != nil {
		return nil, err
	}
	build.Output = mem
	return build, nil
}

// ToDir runs the build and writes the output below dir.
func (b *Builder) ToDir(ctx context.Context, dir string) (*Build, error) {
	return b.WriteTo(ctx, sink.NewDir(dir))
}

// WriteTo runs the build and writes the output to s.
func (b *Builder) WriteTo(ctx context.Context, s sink.Sink) (*Build, error) {
	if b.dir != "" {
		return CompileProject(ctx, b.dir, &b.cfg, s)
	}
	return compileFile(ctx, b.file, b.src, &b.cfg, s)
}
