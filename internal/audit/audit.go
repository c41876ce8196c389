// Package audit keeps a tamper-evident log of moderator resolutions.
//
// Every entry records the SHA-256 of its predecessor, starting from a genesis
// entry whose hash is GenesisHash, so rewriting history is detectable with
// Verify. MemoryLog suits single-process deployments and tests; PostgresLog
// keeps the log across restarts.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenesisHash anchors the chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Resolution describes how a moderator verdict was applied to a report.
type Resolution struct {
	Ticket   uuid.UUID `json:"ticket"`
	Reporter string    `json:"reporter"`
	Offender string    `json:"offender"`
	Category string    `json:"category"`
	Specific string    `json:"specific"`
	Verdict  string    `json:"verdict"`
	Outcome  string    `json:"outcome"`
	Markers  []string  `json:"markers"`
}

// Entry is one record of the log.
type Entry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Ticket    string    `json:"ticket"`
	Offender  string    `json:"offender"`
	Verdict   string    `json:"verdict"`
	Outcome   string    `json:"outcome"`
	DataHash  string    `json:"data_hash"` // SHA-256 of the JSON-encoded Resolution
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// Log is an append-only chain of resolution entries.
type Log interface {
	// Append chains a new entry for res onto the tip.
	Append(ctx context.Context, res Resolution) (*Entry, error)
	// Get returns the entry at a zero-based index; index 0 is genesis.
	Get(ctx context.Context, index int) (*Entry, error)
	// Len returns the number of entries including genesis.
	Len(ctx context.Context) (int, error)
	// Verify walks the chain and returns nil if it is intact.
	Verify(ctx context.Context) error
	// Root returns the hash of the newest entry.
	Root(ctx context.Context) (string, error)
}

func genesis() *Entry {
	return &Entry{
		Index:     0,
		Timestamp: time.Now().UTC(),
		Verdict:   "genesis",
		Outcome:   "genesis",
		DataHash:  GenesisHash,
		PrevHash:  GenesisHash,
		Hash:      GenesisHash,
	}
}

// hashEntry must not be used for the genesis entry.
func hashEntry(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%s|%s|%s",
		e.Index, e.Timestamp.Format(time.RFC3339Nano),
		e.Ticket, e.Offender, e.Verdict, e.Outcome, e.DataHash, e.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

func sha256Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// verifyLink checks curr against its predecessor. prev is nil for genesis.
func verifyLink(prev, curr *Entry) error {
	if prev == nil {
		if curr.Hash != GenesisHash {
			return fmt.Errorf("genesis entry has wrong hash: got %q", curr.Hash)
		}
		return nil
	}
	if curr.PrevHash != prev.Hash {
		return fmt.Errorf("hash chain broken at index %d", curr.Index)
	}
	if curr.Hash != hashEntry(curr) {
		return fmt.Errorf("entry %d has invalid hash", curr.Index)
	}
	return nil
}
