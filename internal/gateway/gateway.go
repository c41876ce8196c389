// Package gateway connects the bot to a chat platform over HTTP. Inbound
// events arrive as JSON, outbound messages and reactions are buffered in an
// outbox and pushed to the platform adapter.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmerrifield20/modbot/internal/transport"
	"go.uber.org/zap"
)

// emoji encodes each marker kind as a reaction.
var emoji = map[transport.Marker]string{
	transport.MarkerRemoved:       "❌",
	transport.MarkerDeprioritized: "🔻",
	transport.MarkerWarningLabel:  "⭕",
	transport.MarkerElectionRisk:  "🗳️",
	transport.MarkerHealthRisk:    "🩺",
}

// Emoji returns the reaction used for m.
func Emoji(m transport.Marker) (string, bool) {
	e, ok := emoji[m]
	return e, ok
}

// Gateway implements transport.Transport on top of a Directory, an Outbox and
// a Delivery.
type Gateway struct {
	dir      *Directory
	outbox   *Outbox
	delivery Delivery
	logger   *zap.Logger
}

// New creates a Gateway.
func New(dir *Directory, outbox *Outbox, delivery Delivery, logger *zap.Logger) *Gateway {
	return &Gateway{dir: dir, outbox: outbox, delivery: delivery, logger: logger}
}

// Directory returns the gateway's message directory.
func (g *Gateway) Directory() *Directory { return g.dir }

// Outbox returns the gateway's outbound buffer.
func (g *Gateway) Outbox() *Outbox { return g.outbox }

// ResolveMessageLink implements transport.Resolver.
func (g *Gateway) ResolveMessageLink(ctx context.Context, guildID, channelID, messageID string) (*transport.MessageRef, error) {
	return g.dir.ResolveMessageLink(ctx, guildID, channelID, messageID)
}

// Send implements transport.Sender. The item is always kept in the outbox;
// a failed push to the adapter is logged and not returned.
func (g *Gateway) Send(ctx context.Context, s transport.Surface, text string) error {
	if s.ID == "" {
		return errors.New("send: empty surface id")
	}
	it := Item{Kind: KindMessage, Surface: s, Text: text}
	switch s.Kind {
	case transport.SurfaceDM:
	case transport.SurfaceModerator:
		it.ChannelID = g.dir.ModeratorChannel(s.ID)
	case transport.SurfacePublic:
		it.ChannelID = s.ID
	default:
		return fmt.Errorf("send: unknown surface kind %q", s.Kind)
	}
	g.push(ctx, g.outbox.Append(it))
	return nil
}

// AddMarker implements transport.MarkerApplier by reacting to msg.
func (g *Gateway) AddMarker(ctx context.Context, msg *transport.MessageRef, m transport.Marker) error {
	if msg == nil {
		return errors.New("add marker: nil message")
	}
	e, ok := emoji[m]
	if !ok {
		return fmt.Errorf("add marker: unknown marker %q", m)
	}
	g.push(ctx, g.outbox.Append(Item{
		Kind:      KindReaction,
		Surface:   transport.Surface{Kind: transport.SurfacePublic, ID: msg.GuildID},
		ChannelID: msg.ChannelID,
		MessageID: msg.MessageID,
		Marker:    m,
		Emoji:     e,
	}))
	return nil
}

func (g *Gateway) push(ctx context.Context, it Item) {
	if err := g.delivery.Deliver(ctx, it); err != nil {
		g.logger.Warn("outbound delivery failed",
			zap.Int64("seq", it.Seq),
			zap.String("kind", it.Kind),
			zap.Error(err),
		)
	}
}
