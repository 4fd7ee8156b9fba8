package project

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ts2rs/ts2rs/compiler/rust"
)

// SourceDir is the crate directory generated modules are written to.
const SourceDir = "src"

// reservedStems would collide with the crate root or the mod.rs files.
var reservedStems = map[string]bool{"lib": true, "main": true, "mod": true}

// ModulePath returns the output path of the module translated from the
// input file rel: models/userService.ts becomes src/models/user_service.rs.
func ModulePath(rel string) string {
	parts := strings.Split(strings.TrimSuffix(rel, ".ts"), "/")
	for i, p := range parts {
		name := rust.ModuleName(p)
		if raw, ok := strings.CutPrefix(name, "r#"); ok {
			name = raw + "_"
		}
		if i == len(parts)-1 && reservedStems[name] {
			name += "_ts"
		}
		parts[i] = name
	}
	return path.Join(SourceDir, path.Join(parts...)) + ".rs"
}

// Plan maps every input file to its module path. Two inputs that map to the
// same module are an error.
func Plan(inputs []string) (map[string]string, error) {
	out := make(map[string]string, len(inputs))
	owner := make(map[string]string, len(inputs))
	for _, in := range inputs {
		mp := ModulePath(in)
		if prev, ok := owner[mp]; ok {
			return nil, fmt.Errorf("%s and %s both translate to %s", prev, in, mp)
		}
		owner[mp] = in
		out[in] = mp
	}
	return out, nil
}

const moduleHeader = "// Code generated by ts2rs. DO NOT EDIT.\n\n"

// ModuleFiles returns src/lib.rs and one mod.rs per nested directory,
// declaring every module in paths. Paths are outputs of ModulePath.
func ModuleFiles(paths []string) map[string][]byte {
	children := map[string]map[string]bool{SourceDir: {}}
	for _, p := range paths {
		dir, file := path.Split(p)
		dir = strings.TrimSuffix(dir, "/")
		add(children, dir, strings.TrimSuffix(file, ".rs"))
		for dir != SourceDir && dir != "." && dir != "" {
			parent, name := path.Split(dir)
			parent = strings.TrimSuffix(parent, "/")
			add(children, parent, name)
			dir = parent
		}
	}

	files := make(map[string][]byte, len(children))
	for dir, mods := range children {
		names := make([]string, 0, len(mods))
		for m := range mods {
			names = append(names, m)
		}
		sort.Strings(names)
		var b strings.Builder
		b.WriteString(moduleHeader)
		for _, n := range names {
			fmt.Fprintf(&b, "pub mod %s;\n", n)
		}
		name := path.Join(dir, "mod.rs")
		if dir == SourceDir {
			name = path.Join(SourceDir, "lib.rs")
		}
		files[name] = []byte(b.String())
	}
	return files
}

func add(children map[string]map[string]bool, dir, mod string) {
	if children[dir] == nil {
		children[dir] = make(map[string]bool)
	}
	children[dir][mod] = true
}
