package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/tools/txtar"
)

func TestCheckPath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		errMsg string
	}{
		{name: "simple", path: "lib.rs"},
		{name: "nested", path: "src/models/user.rs"},
		{name: "dotted name", path: "src/a..b.rs"},
		{name: "empty", path: "", errMsg: "empty"},
		{name: "absolute", path: "/etc/passwd", errMsg: "absolute"},
		{name: "drive letter", path: "C:/out.rs", errMsg: "absolute"},
		{name: "backslash", path: `src\lib.rs`, errMsg: "backslash"},
		{name: "parent", path: "../lib.rs", errMsg: "traversal"},
		{name: "inner parent", path: "src/../lib.rs", errMsg: "traversal"},
		{name: "current dir", path: "./lib.rs", errMsg: "not clean"},
		{name: "double slash", path: "src//lib.rs", errMsg: "not clean"},
		{name: "trailing slash", path: "src/", errMsg: "not clean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPath(tt.path)
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("CheckPath(%q) error = %v, want nil", tt.path, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("CheckPath(%q) error = %v, want containing %q", tt.path, err, tt.errMsg)
			}
		})
	}
}

func TestDirWriteFile(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root)
	ctx := context.Background()

	if err := d.WriteFile(ctx, "src/lib.rs", []byte("pub mod a;\n")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(root, "src", "lib.rs"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "pub mod a;\n" {
		t.Errorf("file content = %q", got)
	}

	if err := d.WriteFile(ctx, "src/lib.rs", []byte("pub mod b;\n")); err != nil {
		t.Fatalf("overwrite error = %v", err)
	}
	got, _ = os.ReadFile(filepath.Join(root, "src", "lib.rs"))
	if string(got) != "pub mod b;\n" {
		t.Errorf("overwritten content = %q", got)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "src"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".ts2rs-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestDirKeepExisting(t *testing.T) {
	root := t.TempDir()
	d := &Dir{Root: root, KeepExisting: true}
	ctx := context.Background()

	if err := d.WriteFile(ctx, "main.rs", []byte("fn main() {}\n")); err != nil {
		t.Fatalf("first WriteFile() error = %v", err)
	}
	err := d.WriteFile(ctx, "main.rs", []byte("changed"))
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("second WriteFile() error = %v, want already exists", err)
	}
	got, _ := os.ReadFile(filepath.Join(root, "main.rs"))
	if string(got) != "fn main() {}\n" {
		t.Errorf("existing file changed to %q", got)
	}
}

func TestDirRejectsBadPaths(t *testing.T) {
	d := NewDir(t.TempDir())
	for _, p := range []string{"../escape.rs", "/abs.rs", ""} {
		if err := d.WriteFile(context.Background(), p, nil); err == nil {
			t.Errorf("WriteFile(%q) error = nil, want error", p)
		}
	}
}

func TestDirCanceledContext(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewDir(root).WriteFile(ctx, "lib.rs", []byte("x")); err == nil {
		t.Fatal("WriteFile() with canceled context error = nil")
	}
	if _, err := os.Stat(filepath.Join(root, "lib.rs")); !os.IsNotExist(err) {
		t.Errorf("file written despite canceled context: %v", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	content := []byte("pub struct A {}\n")
	if err := m.WriteFile(ctx, "b.rs", content); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteFile(ctx, "a.rs", []byte("pub struct B {}\n")); err != nil {
		t.Fatal(err)
	}
	content[0] = 'X'
	if got := string(m.Get("b.rs")); got != "pub struct A {}\n" {
		t.Errorf("Get() = %q, stored content was not copied", got)
	}
	if got := m.Get("missing.rs"); got != nil {
		t.Errorf("Get(missing) = %q, want nil", got)
	}
	if got := strings.Join(m.Paths(), ","); got != "a.rs,b.rs" {
		t.Errorf("Paths() = %s", got)
	}

	ar := txtar.Parse(m.Archive())
	if len(ar.Files) != 2 || ar.Files[0].Name != "a.rs" || ar.Files[1].Name != "b.rs" {
		t.Errorf("Archive() files = %v", ar.Files)
	}

	m.Reset()
	if len(m.Files()) != 0 {
		t.Error("Reset() left files behind")
	}
}

func TestMemoryConcurrentWrites(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WriteFile(context.Background(), fmt.Sprintf("f%02d.rs", i), []byte("x"))
		}()
	}
	wg.Wait()
	if n := len(m.Files()); n != 20 {
		t.Errorf("len(Files()) = %d, want 20", n)
	}
}
