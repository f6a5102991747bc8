package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsTrackerInvariant(t *testing.T) {
	tracker := NewStatsTracker(3)

	stats := tracker.Snapshot()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Pending)
	assert.False(t, tracker.IsComplete())

	stats = tracker.Apply(1, 0)
	assert.Equal(t, 1, stats.Delivered)
	assert.Equal(t, 2, stats.Pending)

	stats = tracker.Apply(1, 1)
	assert.Equal(t, 2, stats.Delivered)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Pending)
	assert.True(t, tracker.IsComplete())

	assert.Equal(t, stats.Total, stats.Delivered+stats.Failed+stats.Pending)
}

func TestStatsTrackerZeroRecipients(t *testing.T) {
	tracker := NewStatsTracker(0)

	assert.True(t, tracker.IsComplete())

	stats := tracker.Apply(0, 0)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.Pending)
}

func TestStatsTrackerPendingNeverNegative(t *testing.T) {
	tracker := NewStatsTracker(2)

	stats := tracker.Apply(2, 1)
	assert.Equal(t, 0, stats.Pending)
}

func TestStatsTrackerConcurrentApply(t *testing.T) {
	const workers = 50
	tracker := NewStatsTracker(workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				tracker.Apply(0, 1)
			} else {
				tracker.Apply(1, 0)
			}
		}(i)
	}
	wg.Wait()

	stats := tracker.Snapshot()
	assert.Equal(t, workers, stats.Delivered+stats.Failed)
	assert.Equal(t, 0, stats.Pending)
	assert.True(t, tracker.IsComplete())
}
