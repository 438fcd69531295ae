package api

import "context"

// Channel defines the standardized lifecycle interface for communication platforms.
type Channel interface {
	ID() string
	Start(ctx ChannelContext) error
	Stop() error
	Send(session SessionContext, message string, markup *ReplyMarkup) error
}

// SignalingChannel is an optional extension of the Channel interface for
// platforms that support control signals (e.g., typing indicators).
type SignalingChannel interface {
	Channel
	// SendSignal transmits a control signal (e.g., "typing") to the target
	// session to change UI state.
	SendSignal(session SessionContext, signal string) error
}

// MembershipAware is an optional extension of the Channel interface for
// platforms that can verify whether a user belongs to a channel or group.
// Channels that cannot answer membership questions simply don't implement it.
type MembershipAware interface {
	Channel
	// MemberStatus reports the user's standing in the named platform channel,
	// e.g. "member", "administrator", "creator", "left".
	MemberStatus(ctx context.Context, channel string, userID int64) (string, error)
}

// ChannelContext provides the interface for a Channel implementation to
// communicate back with the Gateway core.
type ChannelContext interface {
	MessageResponder
	OnMessage(channelID string, msg *UnifiedMessage)
}

// MessageResponder defines the capabilities for sending responses back to a channel.
type MessageResponder interface {
	SendReply(session SessionContext, content string) error
	SendReplyMarkup(session SessionContext, content string, markup *ReplyMarkup) error
	SendSignal(session SessionContext, signal string) error
}

// UnifiedMessage defines the standardized internal data structure for all
// incoming messages within the relaybot system.
type UnifiedMessage struct {
	Session SessionContext // Contextual information about the source (User, Chat)
	Content string         // Standardized text content of the message
	Command string         // Command name without the leading slash, empty for free text
	Args    []string       // Whitespace-separated command arguments
	Raw     any            // Optional storage for the original platform-specific payload
}

// IsCommand reports whether the message was sent as a slash command.
func (m *UnifiedMessage) IsCommand() bool {
	return m.Command != ""
}

// SessionContext encapsulates identity and routing information for a specific
// conversation unit on a specific communication channel.
type SessionContext struct {
	ChannelID string // Identifier of the channel that originated the session (e.g., "telegram")
	UserID    int64  // Platform-specific unique identifier for the user
	ChatID    string // Platform-specific identifier for the chat (may match UserID for DMs)
	Username  string // Display name or nickname of the user as provided by the platform
}

// InlineButton is a single actionable button attached to a reply.
// Exactly one of URL or CallbackData should be set.
type InlineButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// ReplyMarkup carries optional interactive decorations for an outgoing reply.
// Channels that cannot render buttons are free to ignore it.
type ReplyMarkup struct {
	Buttons [][]InlineButton `json:"buttons"`
}

// MessageHandler defines the function signature for processing incoming messages.
// It implements the MessageProcessor interface.
type MessageHandler func(*UnifiedMessage)

// OnMessage allows MessageHandler to satisfy the MessageProcessor interface.
func (h MessageHandler) OnMessage(msg *UnifiedMessage) {
	h(msg)
}

// MessageProcessor defines the interface for components that can process incoming messages.
type MessageProcessor interface {
	OnMessage(msg *UnifiedMessage)
}

// ResponderAware defines an interface for components that require a
// MessageResponder to be injected after construction.
type ResponderAware interface {
	SetResponder(responder MessageResponder)
}
