package transport

// EventType is the kind of inbound platform event.
type EventType string

const (
	EventMessage EventType = "message"
	EventEdit    EventType = "edit"
)

// Event is an inbound message (or edit) as seen by the bot. GuildID is empty
// for direct messages.
type Event struct {
	Type        EventType `json:"type"`
	GuildID     string    `json:"guild_id"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	MessageID   string    `json:"message_id"`
	AuthorID    string    `json:"author_id"   binding:"required"`
	AuthorName  string    `json:"author_name"`
	Content     string    `json:"content"`
}

// IsDM reports whether the event arrived in a direct message.
func (e Event) IsDM() bool { return e.GuildID == "" }

// Ref returns the message reference carried by the event.
func (e Event) Ref() *MessageRef {
	return &MessageRef{
		GuildID:    e.GuildID,
		ChannelID:  e.ChannelID,
		MessageID:  e.MessageID,
		AuthorID:   e.AuthorID,
		AuthorName: e.AuthorName,
		Content:    e.Content,
	}
}
