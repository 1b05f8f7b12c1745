// Package manifest handles tagheap.toml runtime configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/tagheap/heap"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "tagheap.toml"

// Manifest represents a tagheap.toml configuration.
type Manifest struct {
	Heap  HeapConfig  `toml:"heap"`
	Log   LogConfig   `toml:"log"`
	Trace TraceConfig `toml:"trace"`
	Dump  DumpConfig  `toml:"dump"`

	// Dir is the directory containing the tagheap.toml file (set at load time).
	Dir string `toml:"-"`
}

// HeapConfig sizes the heap regions. Sizes are in words.
type HeapConfig struct {
	SpaceWords    int `toml:"space-words"`
	StaticWords   int `toml:"static-words"`
	StackWords    int `toml:"stack-words"`
	MaxExtraRoots int `toml:"max-extra-roots"`
}

// LogConfig configures the commonlog backend.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// TraceConfig enables the SQLite cycle trace.
type TraceConfig struct {
	DB string `toml:"db"`
}

// DumpConfig enables a CBOR heap snapshot at exit.
type DumpConfig struct {
	Output string `toml:"output"`
}

// Default returns the configuration used when no tagheap.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Heap.SpaceWords <= 0 {
		m.Heap.SpaceWords = heap.DefaultSpaceWords
	}
	if m.Heap.StaticWords <= 0 {
		m.Heap.StaticWords = heap.DefaultStaticWords
	}
	if m.Heap.StackWords <= 0 {
		m.Heap.StackWords = heap.DefaultStackWords
	}
	if m.Heap.MaxExtraRoots <= 0 {
		m.Heap.MaxExtraRoots = heap.DefaultMaxExtraRoots
	}
}

// Load parses a tagheap.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a tagheap.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// HeapOptions translates the [heap] table into heap.Options.
func (m *Manifest) HeapOptions() heap.Options {
	return heap.Options{
		SpaceWords:    m.Heap.SpaceWords,
		StaticWords:   m.Heap.StaticWords,
		StackWords:    m.Heap.StackWords,
		MaxExtraRoots: m.Heap.MaxExtraRoots,
	}
}

// Resolve returns p relative to the manifest directory unless it is
// already absolute or empty.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// TracePath returns the resolved trace database path, or "" if tracing is off.
func (m *Manifest) TracePath() string {
	return m.Resolve(m.Trace.DB)
}

// DumpPath returns the resolved snapshot path, or "" if dumping is off.
func (m *Manifest) DumpPath() string {
	return m.Resolve(m.Dump.Output)
}

// LogPath returns the resolved log file path, or nil to log to stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.File == "" {
		return nil
	}
	p := m.Resolve(m.Log.File)
	return &p
}

// Write encodes m as TOML to path, creating parent directories.
func (m *Manifest) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	return nil
}
