// tagheap CLI - runs an allocation workload against a configured heap
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/tagheap/heap"
	"github.com/chazu/tagheap/heapdump"
	"github.com/chazu/tagheap/manifest"
	"github.com/chazu/tagheap/trace"
)

func main() {
	configDir := flag.String("config", ".", "Directory to search (upwards) for tagheap.toml")
	verbose := flag.Bool("v", false, "Verbose output")
	rounds := flag.Int("rounds", 20, "Workload rounds")
	perRound := flag.Int("per-round", 200, "People added per round")
	spaceWords := flag.Int("space-words", 0, "Initial semi-space size in words (overrides config)")
	tracePath := flag.String("trace", "", "SQLite trace database (overrides config)")
	dumpPath := flag.String("dump", "", "CBOR heap snapshot written at exit (overrides config)")
	writeConfig := flag.String("write-config", "", "Write the effective configuration to this path and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tagheap [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a list-building workload on a two-space copying heap and reports collector statistics.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tagheap -v                          # Run with tagheap.toml or defaults\n")
		fmt.Fprintf(os.Stderr, "  tagheap -space-words 64 -rounds 100 # Start tiny, force growth\n")
		fmt.Fprintf(os.Stderr, "  tagheap -trace gc.db -dump heap.cbor\n")
	}
	flag.Parse()

	m, err := loadManifest(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *spaceWords > 0 {
		m.Heap.SpaceWords = *spaceWords
	}
	if *tracePath != "" {
		m.Trace.DB = *tracePath
	}
	if *dumpPath != "" {
		m.Dump.Output = *dumpPath
	}

	if *writeConfig != "" {
		if err := m.Write(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	verbosity := m.Log.Verbosity
	if *verbose && verbosity < 2 {
		verbosity = 2
	}
	commonlog.Configure(verbosity, m.LogPath())

	opts := m.HeapOptions()
	opts.Formatter = heap.FormatterFunc(formatValue)
	h := heap.New(opts)

	var rec *trace.Recorder
	if p := m.TracePath(); p != "" {
		rec, err = trace.Open(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		h.Observe(rec)
		if *verbose {
			fmt.Printf("Tracing run %s to %s\n", rec.Run(), rec.Path())
		}
	}

	start := time.Now()
	w := newWorkload(h)
	w.run(*rounds, *perRound)
	elapsed := time.Since(start)

	report(h, len(w.model), elapsed)

	if rec != nil {
		if err := rec.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Trace error: %v\n", err)
			os.Exit(1)
		}
	}

	if p := m.DumpPath(); p != "" {
		h.Collect()
		snap := heapdump.Capture(h)
		if err := snap.Verify(); err != nil {
			h.Fail("%v", err)
		}
		if err := heapdump.WriteFile(p, snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Printf("Wrote %d objects (%d bytes live) to %s\n", len(snap.Objects), snap.LiveBytes(), p)
		}
	}
}

// loadManifest finds tagheap.toml above dir, falling back to defaults.
func loadManifest(dir string) (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(), nil
	}
	return m, nil
}

func report(h *heap.Heap, people int, elapsed time.Duration) {
	st := h.Stats()
	fmt.Printf("people alive:     %d\n", people)
	fmt.Printf("allocations:      %d (%d bytes)\n", st.Allocations, st.BytesAllocated)
	fmt.Printf("collections:      %d (%d grew the heap)\n", st.Cycles, st.Growths)
	fmt.Printf("reclaimed:        %d bytes\n", st.BytesReclaimed)
	fmt.Printf("semi-space:       %d words, %d bytes in use\n", h.Space().Words, h.UsedBytes())
	fmt.Printf("gc time:          %v of %v\n", st.GCTime, elapsed)
}
