package heap

import "time"

// CycleStats describes one collection cycle.
type CycleStats struct {
	Cycle          uint64
	RequestedBytes uint64
	UsedBytes      uint64 // active-space bytes in use when the cycle began
	LiveBytes      uint64
	LiveObjects    int
	ReclaimedBytes uint64
	SpaceWords     int // semi-space size before the cycle
	NewSpaceWords  int // semi-space size after the cycle
	Grew           bool
	StaticRoots    int
	StackRoots     int
	ExtraRoots     int
	Duration       time.Duration
}

// Stats holds cumulative heap counters.
type Stats struct {
	Cycles         uint64
	Growths        uint64
	Allocations    uint64
	BytesAllocated uint64
	BytesReclaimed uint64
	GCTime         time.Duration
	Last           CycleStats
}

func (s *Stats) record(c *CycleStats) {
	s.Cycles++
	if c.Grew {
		s.Growths++
	}
	s.BytesReclaimed += c.ReclaimedBytes
	s.GCTime += c.Duration
	s.Last = *c
}

// Observer is notified after every collection cycle.
type Observer interface {
	CycleDone(CycleStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(CycleStats)

func (f ObserverFunc) CycleDone(s CycleStats) { f(s) }

// Observe registers o for cycle notifications.
func (h *Heap) Observe(o Observer) {
	h.observers = append(h.observers, o)
}

// Stats returns the cumulative counters.
func (h *Heap) Stats() Stats {
	return h.stats
}

// SpaceInfo describes the active semi-space.
type SpaceInfo struct {
	Begin   uint64
	End     uint64
	Current uint64
	Words   int
}

// Space reports the bounds and fill level of the active semi-space.
func (h *Heap) Space() SpaceInfo {
	return SpaceInfo{
		Begin:   h.active.begin,
		End:     h.active.end,
		Current: h.active.current,
		Words:   h.active.size,
	}
}

// UsedBytes returns the number of bytes allocated in the active space.
func (h *Heap) UsedBytes() uint64 {
	return h.active.current - h.active.begin
}

// Uptime returns the time since the heap was created.
func (h *Heap) Uptime() time.Duration {
	return time.Since(h.started)
}
