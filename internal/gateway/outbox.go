package gateway

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmerrifield20/modbot/internal/transport"
)

// DefaultOutboxSize bounds the number of retained outbound items.
const DefaultOutboxSize = 1000

// Item kinds.
const (
	KindMessage  = "message"
	KindReaction = "reaction"
)

// Item is one outbound action: a message to a surface or a reaction on a
// guild message.
type Item struct {
	Seq       int64             `json:"seq"`
	ID        uuid.UUID         `json:"id"`
	Kind      string            `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
	Surface   transport.Surface `json:"surface"`
	ChannelID string            `json:"channel_id,omitempty"`
	MessageID string            `json:"message_id,omitempty"`
	Text      string            `json:"text,omitempty"`
	Marker    transport.Marker  `json:"marker,omitempty"`
	Emoji     string            `json:"emoji,omitempty"`
}

// Outbox is a bounded, sequence-numbered buffer of outbound items. Oldest
// items are dropped once the buffer is full.
type Outbox struct {
	mu    sync.RWMutex
	items []Item
	size  int
	seq   int64
}

// NewOutbox creates an Outbox retaining up to size items.
func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Outbox{size: size}
}

// Append stamps it with the next sequence number, an id and a timestamp and
// stores it.
func (o *Outbox) Append(it Item) Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	it.Seq = o.seq
	it.ID = uuid.New()
	it.Timestamp = time.Now().UTC()
	o.items = append(o.items, it)
	if over := len(o.items) - o.size; over > 0 {
		o.items = append(o.items[:0:0], o.items[over:]...)
	}
	return it
}

// After returns the retained items with a sequence number greater than seq,
// oldest first.
func (o *Outbox) After(seq int64) []Item {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := []Item{}
	for _, it := range o.items {
		if it.Seq > seq {
			out = append(out, it)
		}
	}
	return out
}

// LastSeq returns the sequence number of the newest item.
func (o *Outbox) LastSeq() int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.seq
}
