// Package sink holds the destinations generated Rust files are written to.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/tools/txtar"
)

// Sink receives generated files. Paths are slash-separated and relative;
// the sink decides where they end up. Implementations must be safe for
// concurrent use.
type Sink interface {
	WriteFile(ctx context.Context, path string, content []byte) error
}

// Dir writes files below a directory on disk.
type Dir struct {
	// Root is the output directory.
	Root string

	// Mode is the permission of written files; zero means 0644.
	Mode os.FileMode

	// KeepExisting makes writing over an existing file an error.
	KeepExisting bool
}

// NewDir returns a Dir that overwrites files below root.
func NewDir(root string) *Dir {
	return &Dir{Root: root, Mode: 0o644}
}

// WriteFile writes content to path below Root, creating parent directories.
// The file is written to a temporary name and renamed into place, so readers
// never see a partial file.
func (d *Dir) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := CheckPath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := d.resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ts2rs-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, werr := tmp.Write(content)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	mode := d.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return d.place(tmpPath, full, path)
}

// resolve joins path to Root and rejects results outside it.
func (d *Dir) resolve(path string) (string, error) {
	root, err := filepath.Abs(d.Root)
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	full := filepath.Join(root, filepath.FromSlash(path))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes output directory: %q", path)
	}
	return full, nil
}

// place moves the finished temp file to full. With KeepExisting it links
// instead of renaming, which fails atomically when full exists.
func (d *Dir) place(tmpPath, full, path string) error {
	if !d.KeepExisting {
		if err := os.Rename(tmpPath, full); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("rename into %s: %w", path, err)
		}
		return nil
	}
	err := os.Link(tmpPath, full)
	_ = os.Remove(tmpPath)
	switch {
	case errors.Is(err, os.ErrExist):
		return fmt.Errorf("file already exists: %q", path)
	case err != nil:
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

// Memory keeps written files in memory.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// WriteFile stores a copy of content under path.
func (m *Memory) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := CheckPath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), content...)
	return nil
}

// Get returns a copy of the file at path, or nil.
func (m *Memory) Get(path string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[path]
	if !ok {
		return nil
	}
	return append([]byte(nil), content...)
}

// Paths returns the written paths in sorted order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Files returns a copy of every written file.
func (m *Memory) Files() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.files))
	for p, content := range m.files {
		out[p] = append([]byte(nil), content...)
	}
	return out
}

// Archive returns the written files as a txtar archive in path order.
func (m *Memory) Archive() []byte {
	ar := &txtar.Archive{}
	for _, p := range m.Paths() {
		ar.Files = append(ar.Files, txtar.File{Name: p, Data: m.Get(p)})
	}
	return txtar.Format(ar)
}

// Reset forgets every written file.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string][]byte)
}

// CheckPath reports whether path is acceptable as an output path: relative,
// slash-separated, clean and without parent references.
func CheckPath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") || hasDriveLetter(path) {
		return errors.New("absolute paths not allowed")
	}
	if strings.Contains(path, "\\") {
		return errors.New("backslashes not allowed")
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	if clean := filepath.ToSlash(filepath.Clean(path)); clean != path {
		return fmt.Errorf("path is not clean (expected %q)", clean)
	}
	return nil
}

func hasDriveLetter(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	c := path[0] | 0x20
	return c >= 'a' && c <= 'z'
}
