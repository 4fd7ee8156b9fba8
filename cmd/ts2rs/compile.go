package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sanity-io/litter"

	"github.com/ts2rs/ts2rs/compiler"
	"github.com/ts2rs/ts2rs/compiler/ir"
	"github.com/ts2rs/ts2rs/compiler/parser"
)

// buildFlags are the compilation settings shared by compile and check.
// Unset flags leave the project's ts2rs.toml in charge.
type buildFlags struct {
	Runtime    bool     `help:"Emit code against the ts2rs_runtime prelude."`
	Serde      bool     `help:"Derive Serialize and Deserialize on generated types."`
	Jobs       int      `help:"Files compiled at once in project mode (default: GOMAXPROCS)." short:"j"`
	Derive     []string `help:"Traits derived for structs and unions (default: Debug,Clone)." sep:","`
	Visibility string   `help:"Item visibility: pub, crate or exported."`
	Exclude    []string `help:"Globs of project files to skip." sep:","`
}

func (f *buildFlags) builder(input string, env *Env) (*compiler.Builder, error) {
	fi, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	var b *compiler.Builder
	if fi.IsDir() {
		b = compiler.FromDir(input)
	} else {
		src, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		b = compiler.FromSource(filepath.Base(input), string(src))
	}
	if f.Runtime {
		b.WithRuntime()
	}
	if f.Serde {
		b.WithSerde()
	}
	if f.Jobs > 0 {
		b.Jobs(f.Jobs)
	}
	if len(f.Derive) > 0 {
		b.Derives(f.Derive...)
	}
	if f.Visibility != "" {
		b.Visibility(f.Visibility)
	}
	if len(f.Exclude) > 0 {
		b.Exclude(f.Exclude...)
	}
	return b.WithLogger(env.Logger), nil
}

type CompileCmd struct {
	Input   string `arg:"" help:"TypeScript file or project directory." type:"path"`
	Out     string `help:"Directory to write the generated files to." short:"o" type:"path"`
	Archive bool   `help:"Print every generated file to stdout as a txtar archive."`
	DumpAST bool   `help:"Print the parsed syntax tree of a file instead of compiling it." name:"dump-ast"`

	Flags buildFlags `embed:""`
}

func (c *CompileCmd) Run(env *Env) error {
	if c.DumpAST {
		return dumpAST(c.Input, env.Stdout)
	}
	b, err := c.Flags.builder(c.Input, env)
	if err != nil {
		return err
	}
	ctx := context.Background()
	var build *compiler.Build
	if c.Out != "" {
		build, err = b.ToDir(ctx, c.Out)
	} else {
		build, err = b.Generate(ctx)
	}
	if err != nil {
		return err
	}
	printDiagnostics(env.Stderr, build.Diagnostics())

	switch {
	case c.Out != "":
	case c.Archive:
		if _, err := env.Stdout.Write(build.Output.Archive()); err != nil {
			return err
		}
	case len(build.Files) == 1 && len(build.Support) == 0:
		if _, err := io.WriteString(env.Stdout, build.Files[0].Source); err != nil {
			return err
		}
	default:
		return errors.New("project output needs --out or --archive")
	}
	return buildErr(build)
}

type CheckCmd struct {
	Input  string `arg:"" help:"TypeScript file or project directory." type:"path"`
	Strict bool   `help:"Fail when any warning is reported."`

	Flags buildFlags `embed:""`
}

func (c *CheckCmd) Run(env *Env) error {
	b, err := c.Flags.builder(c.Input, env)
	if err != nil {
		return err
	}
	build, err := b.Generate(context.Background())
	if err != nil {
		return err
	}
	diags := build.Diagnostics()
	printDiagnostics(env.Stderr, diags)
	if err := buildErr(build); err != nil {
		return err
	}
	if n := len(diags.Warnings()); c.Strict && n > 0 {
		return fmt.Errorf("%d warning(s) reported", n)
	}
	return nil
}

func printDiagnostics(w io.Writer, ds ir.Diagnostics) {
	for _, d := range ds {
		fmt.Fprintln(w, d.String())
	}
}

func buildErr(b *compiler.Build) error {
	n := 0
	for _, r := range b.Files {
		if r.Failed() {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d file(s) failed to compile", n, len(b.Files))
}

func dumpAST(file string, w io.Writer) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	prog, err := parser.Parse(filepath.Base(file), string(src))
	if err != nil {
		return err
	}
	dump := litter.Options{
		StripPackageNames: true,
		HidePrivateFields: true,
	}
	_, err = io.WriteString(w, dump.Sdump(prog)+"\n")
	return err
}
