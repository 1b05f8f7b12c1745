package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/tagheap/heap"
)

func TestLoadManifest(t *testing.T) {
	// Create a temporary directory with a tagheap.toml
	dir := t.TempDir()
	tomlContent := `
[heap]
space-words = 2048
static-words = 16
stack-words = 512
max-extra-roots = 8

[log]
verbosity = 2
file = "gc.log"

[trace]
db = "trace.db"

[dump]
output = "heap.cbor"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Heap.SpaceWords != 2048 {
		t.Errorf("space-words = %d, want 2048", m.Heap.SpaceWords)
	}
	if m.Heap.StaticWords != 16 {
		t.Errorf("static-words = %d, want 16", m.Heap.StaticWords)
	}
	if m.Heap.StackWords != 512 {
		t.Errorf("stack-words = %d, want 512", m.Heap.StackWords)
	}
	if m.Heap.MaxExtraRoots != 8 {
		t.Errorf("max-extra-roots = %d, want 8", m.Heap.MaxExtraRoots)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if got := m.TracePath(); got != filepath.Join(m.Dir, "trace.db") {
		t.Errorf("TracePath = %q", got)
	}
	if got := m.DumpPath(); got != filepath.Join(m.Dir, "heap.cbor") {
		t.Errorf("DumpPath = %q", got)
	}
	if p := m.LogPath(); p == nil || *p != filepath.Join(m.Dir, "gc.log") {
		t.Errorf("LogPath = %v", p)
	}

	opts := m.HeapOptions()
	if opts.SpaceWords != 2048 || opts.StaticWords != 16 || opts.StackWords != 512 || opts.MaxExtraRoots != 8 {
		t.Errorf("HeapOptions = %+v", opts)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[log]
verbosity = 1
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Heap.SpaceWords != heap.DefaultSpaceWords {
		t.Errorf("default space-words = %d, want %d", m.Heap.SpaceWords, heap.DefaultSpaceWords)
	}
	if m.Heap.MaxExtraRoots != heap.DefaultMaxExtraRoots {
		t.Errorf("default max-extra-roots = %d, want %d", m.Heap.MaxExtraRoots, heap.DefaultMaxExtraRoots)
	}
	if m.TracePath() != "" || m.DumpPath() != "" || m.LogPath() != nil {
		t.Error("trace, dump and log file should be off by default")
	}
}

func TestLoadManifestUnknownKey(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[heap]
space-wrods = 10
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("expected an error for a misspelled key")
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	tomlContent := `[heap]
space-words = 64
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Heap.SpaceWords != 64 {
		t.Errorf("space-words = %d, want 64", m.Heap.SpaceWords)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no tagheap.toml exists")
	}
}

func TestResolve(t *testing.T) {
	m := &Manifest{Dir: "/app"}

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"trace.db", "/app/trace.db"},
		{"/var/trace.db", "/var/trace.db"},
	}

	for _, tt := range tests {
		if got := m.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := Default()
	m.Heap.SpaceWords = 4096
	m.Trace.DB = "run.db"
	if err := m.Write(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Heap.SpaceWords != 4096 {
		t.Errorf("space-words = %d, want 4096", loaded.Heap.SpaceWords)
	}
	if loaded.Trace.DB != "run.db" {
		t.Errorf("trace db = %q, want run.db", loaded.Trace.DB)
	}
	if loaded.Heap.StackWords != heap.DefaultStackWords {
		t.Errorf("stack-words = %d, want %d", loaded.Heap.StackWords, heap.DefaultStackWords)
	}
}
