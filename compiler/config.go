package compiler

import (
	"fmt"
	"log/slog"
	"regexp"
	"runtime"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ts2rs/ts2rs/compiler/rust"
	"github.com/ts2rs/ts2rs/internal/project"
)

// Config holds the settings of a compilation.
type Config struct {
	// Runtime emits the ts2rs_runtime prelude and its Dynamic type.
	Runtime bool

	// Serde derives Serialize and Deserialize on generated types.
	Serde bool

	// Derives are the traits derived for structs and unions.
	// Default: Debug, Clone.
	Derives []string `validate:"dive,rust_path"`

	// Visibility is "pub" (default), "crate" or "exported".
	Visibility string `validate:"omitempty,oneof=pub crate exported"`

	// Jobs bounds the files compiled at once in project mode.
	// Default: GOMAXPROCS.
	Jobs int `validate:"gte=0,lte=256"`

	// Include and Exclude filter the files of a project; see
	// project.Discover.
	Include []string `validate:"dive,required"`
	Exclude []string `validate:"dive,required"`

	// Logger receives per-file progress. Default: slog.Default().
	Logger *slog.Logger `validate:"-"`
}

var rustPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$`)

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("rust_path", func(fl validator.FieldLevel) bool {
		return rustPath.MatchString(fl.Field().String())
	})
	return v
})

// Validate checks the configuration. The error wraps
// validator.ValidationErrors.
func (c *Config) Validate() error {
	if err := validate().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyConfigDefaults returns a copy of cfg with defaults filled in.
func applyConfigDefaults(cfg *Config) *Config {
	result := *cfg
	if result.Visibility == "" {
		result.Visibility = string(rust.VisibilityPub)
	}
	if result.Derives == nil {
		result.Derives = append([]string(nil), rust.DefaultDerives...)
	}
	if result.Jobs == 0 {
		result.Jobs = runtime.GOMAXPROCS(0)
	}
	if result.Logger == nil {
		result.Logger = slog.Default()
	}
	return &result
}

// mergeManifest fills the settings cfg leaves unset from a project
// manifest. Flags that enable features are combined.
func mergeManifest(cfg *Config, m *project.Manifest) *Config {
	result := *cfg
	c := m.Compile
	result.Runtime = result.Runtime || c.Runtime
	result.Serde = result.Serde || c.Serde
	if result.Derives == nil && c.Derives != nil {
		result.Derives = c.Derives
	}
	if result.Visibility == "" {
		result.Visibility = c.Visibility
	}
	if result.Jobs == 0 {
		result.Jobs = c.Jobs
	}
	if result.Include == nil {
		result.Include = m.Include
	}
	result.Exclude = append(append([]string(nil), m.Exclude...), result.Exclude...)
	return &result
}

func (c *Config) generatorOptions() rust.Options {
	return rust.Options{
		Runtime:    c.Runtime,
		Serde:      c.Serde,
		Derives:    c.Derives,
		Visibility: rust.Visibility(c.Visibility),
	}
}

// Builder provides a fluent API over Config.
// Create one with FromSource or FromDir.
//
// Example:
//
//	compiler.FromDir("./web/src").
//	    WithSerde().
//	    Jobs(4).
//	    ToDir(ctx, "./crates/web")
type Builder struct {
	file string
	src  string
	dir  string
	cfg  Config
}

// FromSource starts a build of one TypeScript file held in memory.
func FromSource(file, src string) *Builder {
	return &Builder{file: file, src: src}
}

// FromDir starts a build of every TypeScript file below dir. A ts2rs.toml
// in dir supplies settings the builder does not set.
func FromDir(dir string) *Builder {
	return &Builder{dir: dir}
}

// WithRuntime emits code against the ts2rs_runtime crate.
func (b *Builder) WithRuntime() *Builder {
	b.cfg.Runtime = true
	return b
}

// WithSerde derives serde traits on generated types.
func (b *Builder) WithSerde() *Builder {
	b.cfg.Serde = true
	return b
}

// Jobs bounds the files compiled at once.
func (b *Builder) Jobs(n int) *Builder {
	b.cfg.Jobs = n
	return b
}

// Derives replaces the derived traits.
func (b *Builder) Derives(traits ...string) *Builder {
	b.cfg.Derives = append([]string{}, traits...)
	return b
}

// Visibility sets item visibility: "pub", "crate" or "exported".
func (b *Builder) Visibility(v string) *Builder {
	b.cfg.Visibility = v
	return b
}

// Exclude adds globs of project files to skip.
func (b *Builder) Exclude(globs ...string) *Builder {
	b.cfg.Exclude = append(b.cfg.Exclude, globs...)
	return b
}

// WithLogger sets the logger for progress messages.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.cfg.Logger = l
	return b
}

// Config returns a copy of the accumulated configuration.
func (b *Builder) Config() Config {
	return b.cfg
}
