// Package moderation holds the single-flight moderation queue and the
// dispatcher that walks moderators through the report at its head.
package moderation

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jmerrifield20/modbot/internal/report"
)

// Queue errors.
var (
	ErrNotHead       = errors.New("report is not at the head of the queue")
	ErrNotQueued     = errors.New("report is not queued")
	ErrAlreadyQueued = errors.New("report is already queued")
	ErrNotAdmitted   = errors.New("only completed, non-cancelled reports with a message and a ticket may be queued")
)

// Queue is a FIFO of reports awaiting a moderator. The head is the only
// report ever in front of a moderator; every other entry waits. Queue is safe
// for concurrent use.
type Queue struct {
	mu      sync.RWMutex
	entries []*report.Report
	tickets map[uuid.UUID]struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{tickets: make(map[uuid.UUID]struct{})}
}

// Push appends r and reports whether it became the head.
func (q *Queue) Push(r *report.Report) (bool, error) {
	if r == nil || r.Message == nil || !r.Complete() || r.Cancelled || r.Ticket == uuid.Nil {
		return false, ErrNotAdmitted
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.tickets[r.Ticket]; ok {
		return false, ErrAlreadyQueued
	}
	q.entries = append(q.entries, r)
	q.tickets[r.Ticket] = struct{}{}
	return len(q.entries) == 1, nil
}

// Head returns the report under review, or nil when the queue is empty.
func (q *Queue) Head() *report.Report {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if len(q.entries) == 0 {
		return nil
	}
	return q.entries[0]
}

// Pop removes the head. ticket must identify the head.
func (q *Queue) Pop(ticket uuid.UUID) (*report.Report, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil, ErrNotQueued
	}
	if q.entries[0].Ticket != ticket {
		if _, ok := q.tickets[ticket]; ok {
			return nil, ErrNotHead
		}
		return nil, ErrNotQueued
	}
	head := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	delete(q.tickets, ticket)
	return head, nil
}

// Remove withdraws a report wherever it sits and reports whether it was the
// head, in which case the caller must dispatch the new head.
func (q *Queue) Remove(ticket uuid.UUID) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.tickets[ticket]; !ok {
		return false, ErrNotQueued
	}
	for i, r := range q.entries {
		if r.Ticket != ticket {
			continue
		}
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
		delete(q.tickets, ticket)
		return i == 0, nil
	}
	return false, ErrNotQueued
}

// FindByReporter returns the queued report filed by reporterID, if any.
// Automated reports are never returned.
func (q *Queue) FindByReporter(reporterID string) *report.Report {
	if reporterID == report.AutomatedID {
		return nil
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, r := range q.entries {
		if r.ID == reporterID {
			return r
		}
	}
	return nil
}

// Len returns the number of queued reports including the head.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Snapshot returns the queued reports in order.
func (q *Queue) Snapshot() []*report.Report {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]*report.Report, len(q.entries))
	copy(out, q.entries)
	return out
}
