// Package karma counts completed reports against each offender so repeat
// offenders can be flagged to moderators.
package karma

import "sync"

// DefaultThreshold is the number of completed reports after which an
// offender is flagged.
const DefaultThreshold = 2

// Tracker maps offender identities to their completed-report count. Counts
// are created on first use, only ever incremented, and live as long as the
// process. Tracker is safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	counts    map[string]int
	threshold int
}

// New returns an empty Tracker. A threshold <= 0 selects DefaultThreshold.
func New(threshold int) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Tracker{counts: make(map[string]int), threshold: threshold}
}

// Record adds one completed report against offender and returns the new count.
func (t *Tracker) Record(offender string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[offender]++
	return t.counts[offender]
}

// Count returns the offender's count; unseen offenders have 0.
func (t *Tracker) Count(offender string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[offender]
}

// ThresholdReached reports whether the offender has been reported at least
// Threshold times.
func (t *Tracker) ThresholdReached(offender string) bool {
	return t.Count(offender) >= t.threshold
}

// Threshold returns the configured flagging threshold.
func (t *Tracker) Threshold() int { return t.threshold }

// Len returns the number of offenders with at least one report.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.counts)
}

// Snapshot returns a copy of all counts.
func (t *Tracker) Snapshot() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}
