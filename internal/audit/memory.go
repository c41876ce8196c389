package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryLog is an in-process Log. It is safe for concurrent use.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryLog returns a log holding only the genesis entry.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: []*Entry{genesis()}}
}

// Append implements Log.
func (l *MemoryLog) Append(_ context.Context, res Resolution) (*Entry, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal resolution: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.entries[len(l.entries)-1]
	entry := &Entry{
		Index:     len(l.entries),
		Timestamp: time.Now().UTC(),
		Ticket:    res.Ticket.String(),
		Offender:  res.Offender,
		Verdict:   res.Verdict,
		Outcome:   res.Outcome,
		DataHash:  sha256Sum(payload),
		PrevHash:  prev.Hash,
	}
	entry.Hash = hashEntry(entry)
	l.entries = append(l.entries, entry)
	return entry, nil
}

// Get implements Log.
func (l *MemoryLog) Get(_ context.Context, index int) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.entries) {
		return nil, fmt.Errorf("index %d out of range", index)
	}
	e := *l.entries[index]
	return &e, nil
}

// Len implements Log.
func (l *MemoryLog) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries), nil
}

// Verify implements Log.
func (l *MemoryLog) Verify(_ context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var prev *Entry
	for _, curr := range l.entries {
		if err := verifyLink(prev, curr); err != nil {
			return err
		}
		prev = curr
	}
	return nil
}

// Root implements Log.
func (l *MemoryLog) Root(_ context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[len(l.entries)-1].Hash, nil
}
