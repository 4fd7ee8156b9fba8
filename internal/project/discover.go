package project

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs are directories never searched for input files.
var skipDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	".git":         true,
}

// Discover returns the TypeScript files below root as sorted,
// slash-separated paths relative to root. Declaration files, hidden and
// dependency directories, and files matched by exclude are skipped. When
// include is non-empty a file must also match one of its globs.
func Discover(root string, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") || matchAny(exclude, rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSource(d.Name()) || matchAny(exclude, rel) {
			return nil
		}
		if len(include) > 0 && !matchAny(include, rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func isSource(name string) bool {
	return strings.HasSuffix(name, ".ts") && !strings.HasSuffix(name, ".d.ts")
}

// matchAny reports whether rel matches one of the globs. A glob matches
// the whole relative path or, when it has no slash, the base name; a
// trailing /** matches everything below a directory.
func matchAny(globs []string, rel string) bool {
	for _, g := range globs {
		if dir, ok := strings.CutSuffix(g, "/**"); ok {
			if rel == dir || strings.HasPrefix(rel, dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(g, rel); ok {
			return true
		}
		if !strings.Contains(g, "/") {
			if ok, _ := path.Match(g, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}
