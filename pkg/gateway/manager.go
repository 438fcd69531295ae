package gateway

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"relaybot/pkg/api"
	"relaybot/pkg/monitor"
)

// GatewayManager owns all registered Channels and routes messages between
// them and the core handler.
type GatewayManager struct {
	channels   map[string]Channel
	msgHandler api.MessageProcessor
	monitor    monitor.Monitor
	mu         sync.RWMutex
}

// NewGatewayManager creates an empty GatewayManager.
func NewGatewayManager() *GatewayManager {
	return &GatewayManager{
		channels: make(map[string]Channel),
	}
}

// SetMessageHandler sets the core logic that processes inbound messages.
func (g *GatewayManager) SetMessageHandler(handler api.MessageProcessor) {
	g.msgHandler = handler
}

// SetMonitor sets the traffic monitor.
func (g *GatewayManager) SetMonitor(m monitor.Monitor) {
	g.monitor = m
}

// Register adds a Channel.
func (g *GatewayManager) Register(c Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID()] = c
}

// GetChannel fetches a specific Channel by ID.
func (g *GatewayManager) GetChannel(id string) (Channel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.channels[id]
	return c, ok
}

// StartAll starts every registered Channel.
func (g *GatewayManager) StartAll() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Starting channel", "id", id)
		if err := c.Start(g); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", id, err)
		}
	}
	return nil
}

// StopAll stops every registered Channel.
func (g *GatewayManager) StopAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Stopping channel", "id", id)
		if err := c.Stop(); err != nil {
			slog.Error("Error stopping channel", "id", id, "error", err)
		}
	}
}

// SendReply delivers plain text back through the originating channel.
func (g *GatewayManager) SendReply(session SessionContext, content string) error {
	return g.SendReplyMarkup(session, content, nil)
}

// SendReplyMarkup delivers text plus optional inline buttons.
func (g *GatewayManager) SendReplyMarkup(session SessionContext, content string, markup *ReplyMarkup) error {
	slog.Debug("Reply", "channel", session.ChannelID, "user", session.Username)

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "BOT",
			ChannelID:   session.ChannelID,
			Username:    session.Username,
			Content:     content,
		})
	}

	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}
	return c.Send(session, content, markup)
}

// SendSignal forwards a control signal (e.g. "typing") to the channel.
// Channels without signal support silently ignore it.
func (g *GatewayManager) SendSignal(session SessionContext, signal string) error {
	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}

	if sc, ok := c.(SignalingChannel); ok {
		return sc.SendSignal(session, signal)
	}
	return nil
}

// MembershipChecker returns the membership capability of the named channel,
// or false when the channel cannot answer membership questions.
func (g *GatewayManager) MembershipChecker(channelID string) (MembershipAware, bool) {
	c, ok := g.GetChannel(channelID)
	if !ok {
		return nil, false
	}
	ma, ok := c.(MembershipAware)
	return ma, ok
}

// OnMessage implements ChannelContext: it receives messages from channels
// and forwards them to the core handler.
func (g *GatewayManager) OnMessage(channelID string, msg *UnifiedMessage) {
	slog.Info("Message received",
		"channel", channelID,
		"user", msg.Session.Username,
		"user_id", msg.Session.UserID,
		"command", msg.Command,
	)

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "USER",
			ChannelID:   channelID,
			Username:    msg.Session.Username,
			Content:     msg.Content,
		})
	}

	if g.msgHandler != nil {
		g.msgHandler.OnMessage(msg)
	} else {
		slog.Warn("No message handler set")
	}
}
