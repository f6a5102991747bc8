package alert

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CooldownGate rate-limits repeated detection triggers per key. A key
// is admitted when its confidence clears the threshold and no admitted
// trigger for the same key happened inside the cooldown window.
// Sub-threshold readings never touch cooldown state, and suppressed
// retries do not extend the window: cooldown is measured from the last
// admitted trigger only.
//
// The gate is synchronous and does no I/O; it is safe to call from
// concurrent consumers. The key map is bounded: when capacity is
// exceeded the entry with the oldest admitted trigger is evicted.
type CooldownGate struct {
	mu        sync.Mutex
	threshold float64
	window    time.Duration
	capacity  int
	lastFired map[string]time.Time
	now       func() time.Time
}

const (
	DefaultThreshold = 0.5
	DefaultWindow    = 30 * time.Second
	DefaultCapacity  = 1024
)

func NewCooldownGate(threshold float64, window time.Duration, capacity int) *CooldownGate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &CooldownGate{
		threshold: threshold,
		window:    window,
		capacity:  capacity,
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// NewCooldownGateWithClock is NewCooldownGate with an injectable clock.
func NewCooldownGateWithClock(threshold float64, window time.Duration, capacity int, now func() time.Time) *CooldownGate {
	g := NewCooldownGate(threshold, window, capacity)
	g.now = now
	return g
}

// Admit reports whether a trigger for key with the given confidence
// passes the gate. An admitted trigger starts a new cooldown window
// for the key.
func (g *CooldownGate) Admit(key string, confidence float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if confidence <= g.threshold {
		return false
	}

	now := g.now()
	if last, ok := g.lastFired[key]; ok && now.Sub(last) < g.window {
		logrus.WithField("key", key).Debug("Alert cooldown active, suppressing")
		return false
	}

	if _, ok := g.lastFired[key]; !ok && len(g.lastFired) >= g.capacity {
		g.evictOldest()
	}
	g.lastFired[key] = now
	return true
}

// evictOldest removes the entry with the oldest admitted trigger.
// Caller holds g.mu.
func (g *CooldownGate) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, t := range g.lastFired {
		if oldestKey == "" || t.Before(oldest) {
			oldestKey = k
			oldest = t
		}
	}
	if oldestKey != "" {
		delete(g.lastFired, oldestKey)
	}
}

// Reset clears the cooldown state for one key.
func (g *CooldownGate) Reset(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.lastFired, key)
}

// SetThreshold updates the confidence threshold. Values outside (0, 1]
// are ignored.
func (g *CooldownGate) SetThreshold(threshold float64) {
	if threshold <= 0 || threshold > 1 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threshold = threshold
	logrus.Infof("Alert confidence threshold updated to %.0f%%", threshold*100)
}

// SetWindow updates the cooldown window. Non-positive values are ignored.
func (g *CooldownGate) SetWindow(window time.Duration) {
	if window <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.window = window
	logrus.Infof("Alert cooldown window updated to %s", window)
}

// Settings returns the current threshold and window.
func (g *CooldownGate) Settings() (float64, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.threshold, g.window
}
