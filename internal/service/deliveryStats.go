package service

import (
	"sync"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

// StatsTracker owns the delivery counters of one dispatch. Channel
// sends complete independently and in any order, so counters advance
// by deltas: Apply is commutative over (delivered, failed) pairs and
// the invariant delivered + failed + pending == total holds after
// every transition. Pending is always derived, never set directly.
//
// One tracker belongs to exactly one dispatch; different dispatches
// never share a tracker.
type StatsTracker struct {
	mu    sync.Mutex
	stats entity.DeliveryStats
}

func NewStatsTracker(total int) *StatsTracker {
	return &StatsTracker{
		stats: entity.DeliveryStats{
			Total:   total,
			Pending: total,
		},
	}
}

// Apply records the outcome of one or more completed channel attempts
// and returns the resulting snapshot.
func (t *StatsTracker) Apply(deliveredDelta, failedDelta int) entity.DeliveryStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Delivered += deliveredDelta
	t.stats.Failed += failedDelta

	pending := t.stats.Total - t.stats.Delivered - t.stats.Failed
	if pending < 0 {
		pending = 0
	}
	t.stats.Pending = pending
	return t.stats
}

func (t *StatsTracker) Snapshot() entity.DeliveryStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (t *StatsTracker) IsComplete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.Pending == 0
}
