// Package web exposes the bot over a WebSocket endpoint for a browser
// console. Each connection gets its own session identity; the channel is
// text only and cannot answer membership questions, so the subscription
// gate does not apply here.
package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"relaybot/pkg/api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for decoupled UI
	},
}

type WebConfig struct {
	Port int `json:"port"`
}

// IncomingMessage is the JSON envelope a console client may send. Plain
// text frames are accepted as a fallback.
type IncomingMessage struct {
	Text string `json:"text"`
}

// OutgoingMessage is the JSON envelope for everything the channel writes.
type OutgoingMessage struct {
	Type    string               `json:"type"` // "reply" or "signal"
	Text    string               `json:"text,omitempty"`
	Value   string               `json:"value,omitempty"`
	Buttons [][]api.InlineButton `json:"buttons,omitempty"`
}

type SafeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *SafeConn) WriteMessage(messageType int, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteMessage(messageType, data)
}

// WebChannel serves the WebSocket console. Connections are addressed by a
// synthetic user ID minted per connection; the negative range keeps them
// from ever colliding with Telegram user IDs in the shared user store.
type WebChannel struct {
	config      WebConfig
	server      *http.Server
	connections map[int64]*SafeConn
	nextID      atomic.Int64
	mu          sync.RWMutex
}

func NewWebChannel(cfg WebConfig) *WebChannel {
	return &WebChannel{
		config:      cfg,
		connections: make(map[int64]*SafeConn),
	}
}

func (c *WebChannel) ID() string {
	return "web"
}

func (c *WebChannel) Start(ctx api.ChannelContext) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		c.handleWebSocket(w, r, ctx)
	})

	addr := fmt.Sprintf(":%d", c.config.Port)
	c.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("Web console listening", "port", c.config.Port)

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Web console server error", "error", err)
		}
	}()

	return nil
}

func (c *WebChannel) Stop() error {
	if c.server != nil {
		return c.server.Close()
	}
	return nil
}

func (c *WebChannel) Send(session api.SessionContext, message string, markup *api.ReplyMarkup) error {
	conn, ok := c.connection(session.UserID)
	if !ok {
		return fmt.Errorf("web user %d not connected", session.UserID)
	}

	out := OutgoingMessage{Type: "reply", Text: message}
	if markup != nil {
		out.Buttons = markup.Buttons
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// SendSignal implements the api.SignalingChannel interface.
func (c *WebChannel) SendSignal(session api.SessionContext, signal string) error {
	conn, ok := c.connection(session.UserID)
	if !ok {
		return fmt.Errorf("web user %d not connected", session.UserID)
	}

	data, err := json.Marshal(OutgoingMessage{Type: "signal", Value: signal})
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WebChannel) connection(userID int64) (*SafeConn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.connections[userID]
	return conn, ok
}

func (c *WebChannel) handleWebSocket(w http.ResponseWriter, r *http.Request, ctx api.ChannelContext) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WS upgrade failed", "error", err)
		return
	}

	conn := &SafeConn{Conn: rawConn}

	// Negative IDs mark synthetic web identities in the shared store.
	userID := -c.nextID.Add(1)

	c.mu.Lock()
	c.connections[userID] = conn
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.connections, userID)
		c.mu.Unlock()
		conn.Close()
	}()

	session := api.SessionContext{
		ChannelID: c.ID(),
		UserID:    userID,
		ChatID:    strconv.FormatInt(userID, 10),
		Username:  "WebUser",
	}

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var content string
		var incoming IncomingMessage
		if err := json.Unmarshal(msgBytes, &incoming); err == nil && incoming.Text != "" {
			content = incoming.Text
		} else {
			// Fallback: treat as plain text (backward compatibility)
			content = string(msgBytes)
		}

		msg := &api.UnifiedMessage{
			Session: session,
			Content: content,
		}
		if command, args, ok := parseSlashCommand(content); ok {
			msg.Command = command
			msg.Args = args
			msg.Content = ""
		}
		ctx.OnMessage(c.ID(), msg)
	}
}

// parseSlashCommand extracts a "/command arg..." line typed into the console
// so web users get the same command surface as Telegram users.
func parseSlashCommand(content string) (string, []string, bool) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "/") {
		return "", nil, false
	}

	fields := strings.Fields(trimmed)
	command := strings.TrimPrefix(fields[0], "/")
	if command == "" {
		return "", nil, false
	}
	return command, fields[1:], true
}
