package project

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Crates the generated code can depend on.
const (
	RuntimeCrate   = "ts2rs-runtime"
	RuntimeVersion = "0.1"
)

// Features records what the generated sources need from other crates.
type Features struct {
	Serde   bool
	Runtime bool
	Regex   bool
}

type cargoManifest struct {
	Package      cargoPackage   `toml:"package"`
	Dependencies map[string]any `toml:"dependencies,omitempty"`
}

type cargoPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

type cargoDep struct {
	Version  string   `toml:"version"`
	Features []string `toml:"features,omitempty"`
}

// Cargo renders the Cargo.toml of the generated crate.
func Cargo(m *Manifest, name string, f Features) ([]byte, error) {
	pkg := cargoPackage{Name: name, Version: m.Package.Version, Edition: m.Package.Edition}
	if pkg.Version == "" {
		pkg.Version = "0.1.0"
	}
	if pkg.Edition == "" {
		pkg.Edition = "2021"
	}
	deps := make(map[string]any)
	if f.Serde {
		deps["serde"] = cargoDep{Version: "1", Features: []string{"derive"}}
		deps["serde_json"] = "1"
	}
	if f.Runtime {
		deps[RuntimeCrate] = RuntimeVersion
	}
	if f.Regex {
		deps["regex"] = "1"
	}
	if len(deps) == 0 {
		deps = nil
	}
	out, err := toml.Marshal(cargoManifest{Package: pkg, Dependencies: deps})
	if err != nil {
		return nil, fmt.Errorf("render Cargo.toml: %w", err)
	}
	return append([]byte(moduleHeaderToml), out...), nil
}

const moduleHeaderToml = "# Code generated by ts2rs. DO NOT EDIT.\n\n"
