// Package transport defines the contract between the moderation core and the
// chat platform it runs on. The core never talks to the platform directly: it
// resolves message links, sends text to a surface and applies symbolic markers
// through the interfaces declared here.
package transport

import (
	"context"
	"errors"
)

// Lookup errors returned by Resolver implementations.
var (
	ErrGuildNotFound   = errors.New("guild not found")
	ErrChannelNotFound = errors.New("channel not found")
	ErrMessageNotFound = errors.New("message not found")
)

// MessageRef identifies a message on the platform together with the data the
// moderation flow needs from it. It is owned by the transport.
type MessageRef struct {
	GuildID    string `json:"guild_id"`
	ChannelID  string `json:"channel_id"`
	MessageID  string `json:"message_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

// Marker is a symbolic moderation action applied to a message.
type Marker string

const (
	MarkerRemoved       Marker = "removed"
	MarkerDeprioritized Marker = "deprioritized"
	MarkerWarningLabel  Marker = "warning_label"
	MarkerElectionRisk  Marker = "election_risk"
	MarkerHealthRisk    Marker = "health_risk"
)

// SurfaceKind distinguishes the places the bot talks to.
type SurfaceKind string

const (
	// SurfaceDM is a 1:1 conversation with a reporting user.
	SurfaceDM SurfaceKind = "dm"
	// SurfacePublic is the channel whose messages are forwarded and classified.
	SurfacePublic SurfaceKind = "public"
	// SurfaceModerator is the moderation channel of a guild.
	SurfaceModerator SurfaceKind = "moderator"
)

// Surface addresses a conversation. ID is the user id for SurfaceDM and the
// guild id for the channel surfaces.
type Surface struct {
	Kind SurfaceKind `json:"kind"`
	ID   string      `json:"id"`
}

// DM returns the direct-message surface of a user.
func DM(userID string) Surface { return Surface{Kind: SurfaceDM, ID: userID} }

// Moderator returns the moderation surface of a guild.
func Moderator(guildID string) Surface { return Surface{Kind: SurfaceModerator, ID: guildID} }

// Resolver turns the three identifiers of a message link into a message.
type Resolver interface {
	ResolveMessageLink(ctx context.Context, guildID, channelID, messageID string) (*MessageRef, error)
}

// Sender delivers text to a surface.
type Sender interface {
	Send(ctx context.Context, surface Surface, text string) error
}

// MarkerApplier applies a symbolic action to a message.
type MarkerApplier interface {
	AddMarker(ctx context.Context, msg *MessageRef, kind Marker) error
}

// Transport is the full set of platform operations the core consumes.
type Transport interface {
	Resolver
	Sender
	MarkerApplier
}
