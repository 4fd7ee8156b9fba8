package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ts2rs/ts2rs/compiler/sink"
	"github.com/ts2rs/ts2rs/internal/project"
)

// CompileProject compiles every TypeScript file below dir into a crate
// written to out: one module per file under src/, the mod.rs and lib.rs
// files declaring them, and Cargo.toml. Files are compiled concurrently,
// at most cfg.Jobs at a time. A file that fails to compile is left out of
// the crate; the returned error is for configuration and I/O failures.
func CompileProject(ctx context.Context, dir string, cfg *Config, out sink.Sink) (*Build, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	m, err := project.LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	c := applyConfigDefaults(mergeManifest(cfg, m))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log := c.Logger
	if m.Path != "" {
		log.Debug("loaded manifest", slog.String("path", m.Path))
	}

	inputs, err := project.Discover(dir, c.Include, c.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discover inputs: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no TypeScript files found in %s", dir)
	}
	plan, err := project.Plan(inputs)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Jobs)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(in)))
			if err != nil {
				return err
			}
			flog := log.With(slog.String("file", in))
			flog.Debug("compiling")
			r := compile(in, string(data), c)
			r.Output = plan[in]
			results[i] = r
			if r.Failed() {
				flog.Warn("compile failed", slog.String("error", r.Err.Error()))
				return nil
			}
			flog.Info("compiled",
				slog.String("output", r.Output),
				slog.Duration("duration", r.Duration),
				slog.Int("warnings", len(r.Diagnostics)),
			)
			return out.WriteFile(gctx, r.Output, []byte(r.Source))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Build{Files: results}
	var modules []string
	features := project.Features{Serde: c.Serde, Runtime: c.Runtime}
	for _, r := range results {
		if r.Failed() {
			continue
		}
		modules = append(modules, r.Output)
		features.Regex = features.Regex || r.UsesRegex
	}
	files := project.ModuleFiles(modules)
	cargo, err := project.Cargo(m, m.CrateName(dir), features)
	if err != nil {
		return nil, err
	}
	files["Cargo.toml"] = cargo
	for _, p := range sortedPaths(files) {
		if err := out.WriteFile(ctx, p, files[p]); err != nil {
			return nil, err
		}
		b.Support = append(b.Support, p)
	}
	log.Info("project compiled",
		slog.String("dir", dir),
		slog.Int("files", len(results)),
		slog.Int("failed", len(results)-len(modules)),
	)
	return b, nil
}

func sortedPaths(files map[string][]byte) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
