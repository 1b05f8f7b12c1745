package heap

import (
	"io"
	"os"
	"time"

	"github.com/tliron/commonlog"
)

// Default sizes, in words.
const (
	DefaultSpaceWords    = 1024
	DefaultStaticWords   = 64
	DefaultStackWords    = 4096
	DefaultMaxExtraRoots = 32
)

// Options configures a Heap. Zero fields take their defaults.
type Options struct {
	// SpaceWords is the initial size of each semi-space.
	SpaceWords int

	// StaticWords is the size of the static (globals) region.
	StaticWords int

	// StackWords is the size of the simulated call stack.
	StackWords int

	// MaxExtraRoots bounds the extra-root list.
	MaxExtraRoots int

	// Formatter renders values for MatchFail diagnostics.
	Formatter Formatter

	// Stderr receives fatal diagnostics. Defaults to os.Stderr.
	Stderr io.Writer

	// Exit terminates the process. Defaults to os.Exit.
	Exit func(status int)

	// Logger defaults to the "tagheap.gc" logger.
	Logger commonlog.Logger
}

func (o *Options) applyDefaults() {
	if o.SpaceWords <= 0 {
		o.SpaceWords = DefaultSpaceWords
	}
	if o.StaticWords <= 0 {
		o.StaticWords = DefaultStaticWords
	}
	if o.StackWords <= 0 {
		o.StackWords = DefaultStackWords
	}
	if o.MaxExtraRoots <= 0 {
		o.MaxExtraRoots = DefaultMaxExtraRoots
	}
	if o.Formatter == nil {
		o.Formatter = plainFormatter{}
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Exit == nil {
		o.Exit = os.Exit
	}
	if o.Logger == nil {
		o.Logger = commonlog.GetLogger("tagheap.gc")
	}
}

// pool is one semi-space.
type pool struct {
	r       *region
	begin   uint64
	end     uint64
	current uint64
	size    int // words
}

func newPool(as *addressSpace, name string, words int) *pool {
	p := &pool{r: as.mapRegion(name, words)}
	p.sync()
	return p
}

// sync refreshes the bounds after the backing region moved or grew.
func (p *pool) sync() {
	p.begin = p.r.base
	p.end = p.r.end()
	p.size = len(p.r.words)
	if p.current < p.begin || p.current > p.end {
		p.current = p.begin
	}
}

func (p *pool) reset() {
	clear(p.r.words)
	p.current = p.begin
}

func (p *pool) contains(addr uint64) bool {
	return addr >= p.begin && addr < p.end
}

// fits uses a strict comparison so that a zero-sized request at the very
// end of the space still counts as a shortfall.
func (p *pool) fits(size uint64) bool {
	return p.current+size < p.end
}

// Heap is the runtime's memory: two semi-spaces, the root regions and the
// collector state. A Heap must only be used from one goroutine.
type Heap struct {
	opts Options
	log  commonlog.Logger
	mem  *addressSpace

	active  *pool
	passive *pool

	static *region
	stack  *region
	sp     uint64 // next free stack slot is sp-WordSize
	bottom uint64

	// scanTop marks the shallowest stack word scanned. Zero means no
	// operation is in progress.
	scanTop uint64

	extra []*Value

	collecting bool
	observers  []Observer
	stats      Stats
	started    time.Time
}

// New creates a heap with both semi-spaces, the static region and the stack
// mapped and empty.
func New(opts Options) *Heap {
	opts.applyDefaults()
	h := &Heap{
		opts:    opts,
		log:     opts.Logger,
		started: time.Now(),
	}
	h.mem = newAddressSpace(h.internalf)
	h.static = h.mem.mapRegion("static", opts.StaticWords)
	h.stack = h.mem.mapRegion("stack", opts.StackWords)
	h.bottom = h.stack.end()
	h.sp = h.bottom
	h.active = newPool(h.mem, "space0", opts.SpaceWords)
	h.passive = newPool(h.mem, "space1", opts.SpaceWords)
	h.extra = make([]*Value, 0, opts.MaxExtraRoots)
	h.log.Debugf("heap initialized: space=%d words static=%d words stack=%d words",
		opts.SpaceWords, opts.StaticWords, opts.StackWords)
	return h
}

// Options returns the effective configuration.
func (h *Heap) Options() Options {
	return h.opts
}

// enter brackets an operation that may allocate. The outermost call fixes
// the stack scan top at the current stack pointer.
func (h *Heap) enter() uint64 {
	prev := h.scanTop
	if prev == 0 {
		h.scanTop = h.sp
	}
	return prev
}

func (h *Heap) leave(prev uint64) {
	h.scanTop = prev
}

// Allocate returns the address of size bytes, rounded up to whole words,
// in the active space. It runs a collection when the space is short.
// The block is zeroed; the caller must write an object header before the
// block becomes reachable from a root.
func (h *Heap) Allocate(size int) uint64 {
	defer h.leave(h.enter())
	return h.alloc(size)
}

func (h *Heap) alloc(size int) uint64 {
	if h.collecting {
		h.internalf("allocation of %d bytes during collection", size)
	}
	if size < 0 {
		h.contractf("negative allocation size %d", size)
	}
	n := roundWords(uint64(size))
	if !h.active.fits(n) {
		h.collect(n)
	}
	if !h.active.fits(n) {
		h.internalf("collection left %d bytes free for a %d byte request",
			h.active.end-h.active.current, n)
	}
	addr := h.active.current
	h.active.current += n
	h.stats.BytesAllocated += n
	h.stats.Allocations++
	return addr
}

// isHeapAddr reports whether addr lies in the active space.
func (h *Heap) isHeapAddr(addr uint64) bool {
	return h.active.contains(addr)
}

// hasHeader reports whether v is an active-space address with room for
// the given number of header words below it.
func (h *Heap) hasHeader(v Value, words int) bool {
	a := uint64(v)
	return v.IsBoxed() && h.active.contains(a) && a-h.active.begin >= uint64(words)*WordSize
}

// isLive reports whether w is a reference the collector must follow.
func (h *Heap) isLive(w uint64) bool {
	return w&1 == 0 && h.active.contains(w)
}
