// Package project handles the files around a translated crate: the
// ts2rs.toml manifest, discovery of input files, and the generated
// Cargo.toml and module tree.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// ManifestName is the file name of the project manifest.
const ManifestName = "ts2rs.toml"

// Manifest is the content of ts2rs.toml.
type Manifest struct {
	Package Package `toml:"package"`
	Compile Compile `toml:"compile"`

	// Include lists globs of input files; empty means every .ts file.
	Include []string `toml:"include" validate:"dive,required"`

	// Exclude lists globs of input files to skip.
	Exclude []string `toml:"exclude" validate:"dive,required"`

	// Path is where the manifest was read from; empty for defaults.
	Path string `toml:"-"`
}

// Package describes the generated crate.
type Package struct {
	Name    string `toml:"name" validate:"omitempty,crate_name"`
	Version string `toml:"version" validate:"omitempty,semver"`
	Edition string `toml:"edition" validate:"omitempty,oneof=2015 2018 2021 2024"`
}

// Compile holds the generation settings of the manifest.
type Compile struct {
	Runtime    bool     `toml:"runtime"`
	Serde      bool     `toml:"serde"`
	Jobs       int      `toml:"jobs" validate:"gte=0,lte=256"`
	Visibility string   `toml:"visibility" validate:"omitempty,oneof=pub crate exported"`
	Derives    []string `toml:"derives" validate:"dive,required"`
}

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("crate_name", func(fl validator.FieldLevel) bool {
		return isCrateName(fl.Field().String())
	})
	return v
})

func isCrateName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case (r >= '0' && r <= '9') || r == '-':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ParseManifest decodes and validates manifest text. Unknown keys are
// rejected so typos do not pass silently.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			keys := make([]string, len(serr.Errors))
			for i, e := range serr.Errors {
				keys[i] = strings.Join(e.Key(), ".")
			}
			return nil, fmt.Errorf("%s: unknown keys: %s", ManifestName, strings.Join(keys, ", "))
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", ManifestName, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", ManifestName, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest fields.
func (m *Manifest) Validate() error {
	if err := validate().Struct(m); err != nil {
		return fmt.Errorf("invalid %s: %w", ManifestName, err)
	}
	return nil
}

// LoadManifest reads ts2rs.toml from dir. A missing file yields an empty
// manifest with no Path.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// CrateName returns the package name, or one derived from dir.
func (m *Manifest) CrateName(dir string) string {
	if m.Package.Name != "" {
		return m.Package.Name
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	name := []rune(filepath.Base(abs))
	for i, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			name[i] = '_'
		}
	}
	if len(name) == 0 || !isCrateName(string(name)) {
		return "ts2rs_crate"
	}
	return string(name)
}
