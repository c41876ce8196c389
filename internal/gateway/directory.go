package gateway

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmerrifield20/modbot/internal/transport"
)

// DefaultMessageCacheSize bounds the number of remembered guild messages.
const DefaultMessageCacheSize = 10000

// Directory remembers the guilds, channels and recent messages the gateway
// has seen so that message links in reports can be resolved. Guilds and
// channels are kept for the process lifetime; messages are evicted least
// recently used first.
type Directory struct {
	mu          sync.RWMutex
	guilds      map[string]struct{}
	channels    map[string]string // channel id → guild id
	modChannels map[string]string // guild id → moderator channel id
	modChannel  string

	messages *lru.Cache[string, transport.MessageRef]
}

// NewDirectory creates a Directory holding up to size messages. modChannel is
// the channel name that identifies a guild's moderator surface.
func NewDirectory(size int, modChannel string) (*Directory, error) {
	if size <= 0 {
		size = DefaultMessageCacheSize
	}
	cache, err := lru.New[string, transport.MessageRef](size)
	if err != nil {
		return nil, fmt.Errorf("message cache: %w", err)
	}
	return &Directory{
		guilds:      make(map[string]struct{}),
		channels:    make(map[string]string),
		modChannels: make(map[string]string),
		modChannel:  modChannel,
		messages:    cache,
	}, nil
}

func messageKey(guildID, channelID, messageID string) string {
	return guildID + "/" + channelID + "/" + messageID
}

// Observe records the guild, channel and message carried by ev. Direct
// messages are not recorded.
func (d *Directory) Observe(ev transport.Event) {
	if ev.IsDM() {
		return
	}
	d.mu.Lock()
	d.guilds[ev.GuildID] = struct{}{}
	if ev.ChannelID != "" {
		d.channels[ev.ChannelID] = ev.GuildID
		if ev.ChannelName == d.modChannel {
			d.modChannels[ev.GuildID] = ev.ChannelID
		}
	}
	d.mu.Unlock()

	if ev.ChannelID != "" && ev.MessageID != "" {
		d.messages.Add(messageKey(ev.GuildID, ev.ChannelID, ev.MessageID), *ev.Ref())
	}
}

// ModeratorChannel returns the moderator channel id seen for guildID, or "".
func (d *Directory) ModeratorChannel(guildID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modChannels[guildID]
}

// ResolveMessageLink implements transport.Resolver.
func (d *Directory) ResolveMessageLink(_ context.Context, guildID, channelID, messageID string) (*transport.MessageRef, error) {
	d.mu.RLock()
	_, guildOK := d.guilds[guildID]
	owner, channelOK := d.channels[channelID]
	d.mu.RUnlock()

	if !guildOK {
		return nil, transport.ErrGuildNotFound
	}
	if !channelOK || owner != guildID {
		return nil, transport.ErrChannelNotFound
	}
	ref, ok := d.messages.Get(messageKey(guildID, channelID, messageID))
	if !ok {
		return nil, transport.ErrMessageNotFound
	}
	return &ref, nil
}

// Stats returns the number of known guilds, channels and cached messages.
func (d *Directory) Stats() (guilds, channels, messages int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.guilds), len(d.channels), d.messages.Len()
}
