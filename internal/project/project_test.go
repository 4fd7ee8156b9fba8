package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		check   func(t *testing.T, m *Manifest)
	}{
		{
			name: "full",
			input: `
include = ["src/**"]
exclude = ["*.test.ts"]

[package]
name = "shapes"
version = "1.2.0"
edition = "2021"

[compile]
runtime = true
serde = true
jobs = 4
visibility = "exported"
derives = ["Debug", "Clone", "PartialEq"]
`,
			check: func(t *testing.T, m *Manifest) {
				if m.Package.Name != "shapes" || m.Package.Version != "1.2.0" {
					t.Errorf("Package = %+v", m.Package)
				}
				if !m.Compile.Runtime || !m.Compile.Serde || m.Compile.Jobs != 4 {
					t.Errorf("Compile = %+v", m.Compile)
				}
				if len(m.Compile.Derives) != 3 || m.Exclude[0] != "*.test.ts" {
					t.Errorf("Derives = %v, Exclude = %v", m.Compile.Derives, m.Exclude)
				}
			},
		},
		{name: "empty", input: ""},
		{name: "unknown key", input: "[compile]\nfast = true\n", wantErr: "fast"},
		{name: "bad visibility", input: "[compile]\nvisibility = \"public\"\n", wantErr: "Visibility"},
		{name: "bad crate name", input: "[package]\nname = \"1shapes\"\n", wantErr: "Name"},
		{name: "bad version", input: "[package]\nversion = \"one\"\n", wantErr: "Version"},
		{name: "too many jobs", input: "[compile]\njobs = 1000\n", wantErr: "Jobs"},
		{name: "syntax", input: "[package\n", wantErr: ManifestName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseManifest() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseManifest() error = %v", err)
			}
			if tt.check != nil {
				tt.check(t, m)
			}
		})
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest(empty dir) error = %v", err)
	}
	if m.Path != "" {
		t.Errorf("Path = %q for a missing manifest", m.Path)
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte("[package]\nname = \"demo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Path == "" || m.CrateName(dir) != "demo" {
		t.Errorf("LoadManifest() = %+v", m)
	}
}

func TestCrateName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my app")
	if got := (&Manifest{}).CrateName(dir); got != "my_app" {
		t.Errorf("CrateName(%q) = %q, want my_app", dir, got)
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{
		"index.ts",
		"models/user.ts",
		"models/user.test.ts",
		"types.d.ts",
		"node_modules/lib/index.ts",
		".cache/x.ts",
		"vendor/old.ts",
		"readme.md",
	} {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("export {}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    string
	}{
		{name: "defaults", want: "index.ts,models/user.test.ts,models/user.ts,vendor/old.ts"},
		{name: "exclude glob", exclude: []string{"*.test.ts", "vendor/**"}, want: "index.ts,models/user.ts"},
		{name: "include dir", include: []string{"models/**"}, exclude: []string{"*.test.ts"}, want: "models/user.ts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(root, tt.include, tt.exclude)
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if s := strings.Join(got, ","); s != tt.want {
				t.Errorf("Discover() = %s, want %s", s, tt.want)
			}
		})
	}
}

func TestModulePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"index.ts", "src/index.rs"},
		{"models/userService.ts", "src/models/user_service.rs"},
		{"lib.ts", "src/lib_ts.rs"},
		{"api/main.ts", "src/api/main_ts.rs"},
		{"api/mod.ts", "src/api/mod_.rs"},
		{"my-utils/type.ts", "src/my_utils/type_.rs"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ModulePath(tt.input); got != tt.want {
				t.Errorf("ModulePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPlanCollision(t *testing.T) {
	_, err := Plan([]string{"userService.ts", "user_service.ts"})
	if err == nil || !strings.Contains(err.Error(), "src/user_service.rs") {
		t.Errorf("Plan() error = %v, want collision on src/user_service.rs", err)
	}
}

func TestModuleFiles(t *testing.T) {
	files := ModuleFiles([]string{"src/index.rs", "src/models/user.rs", "src/models/admin/role.rs"})

	tests := []struct {
		path    string
		want    []string
		notWant []string
	}{
		{path: "src/lib.rs", want: []string{"pub mod index;\npub mod models;\n"}, notWant: []string{"user"}},
		{path: "src/models/mod.rs", want: []string{"pub mod admin;\npub mod user;\n"}},
		{path: "src/models/admin/mod.rs", want: []string{"pub mod role;\n"}},
	}
	if len(files) != len(tests) {
		t.Errorf("ModuleFiles() returned %d files, want %d", len(files), len(tests))
	}
	for _, tt := range tests {
		content := string(files[tt.path])
		for _, w := range tt.want {
			if !strings.Contains(content, w) {
				t.Errorf("%s missing %q:\n%s", tt.path, w, content)
			}
		}
		for _, nw := range tt.notWant {
			if strings.Contains(content, nw) {
				t.Errorf("%s should not contain %q:\n%s", tt.path, nw, content)
			}
		}
	}
}

func TestCargo(t *testing.T) {
	out, err := Cargo(&Manifest{Package: Package{Version: "2.0.0"}}, "shapes", Features{Serde: true, Regex: true})
	if err != nil {
		t.Fatalf("Cargo() error = %v", err)
	}
	var got struct {
		Package      map[string]string `toml:"package"`
		Dependencies map[string]any    `toml:"dependencies"`
	}
	if err := toml.Unmarshal(out, &got); err != nil {
		t.Fatalf("Cargo() produced invalid TOML: %v\n%s", err, out)
	}
	if got.Package["name"] != "shapes" || got.Package["version"] != "2.0.0" || got.Package["edition"] != "2021" {
		t.Errorf("package = %v", got.Package)
	}
	for _, dep := range []string{"serde", "serde_json", "regex"} {
		if _, ok := got.Dependencies[dep]; !ok {
			t.Errorf("dependencies missing %s:\n%s", dep, out)
		}
	}
	if _, ok := got.Dependencies[RuntimeCrate]; ok {
		t.Errorf("runtime crate listed without the runtime feature")
	}

	out, err = Cargo(&Manifest{}, "bare", Features{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "dependencies") {
		t.Errorf("Cargo() with no features lists dependencies:\n%s", out)
	}
}
