package gateway

import (
	"relaybot/pkg/api"
)

// Re-export the transport contracts so channel implementations and the
// handler can keep importing a single package.
type Channel = api.Channel
type SignalingChannel = api.SignalingChannel
type MembershipAware = api.MembershipAware
type MessageResponder = api.MessageResponder
type ChannelContext = api.ChannelContext
type UnifiedMessage = api.UnifiedMessage
type SessionContext = api.SessionContext
type ReplyMarkup = api.ReplyMarkup
type InlineButton = api.InlineButton

// MessageHandler is the function form of a message processor.
type MessageHandler = api.MessageHandler
