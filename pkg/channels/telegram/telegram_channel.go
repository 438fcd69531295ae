package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"relaybot/pkg/api"
)

// TelegramConfig encapsulates the credentials required to authenticate with
// the Telegram Bot API.
type TelegramConfig struct {
	Token string `json:"token"` // The secret BOT API string provided by @BotFather
}

// TelegramChannel is the production implementation of api.Channel for the
// Telegram platform. It handles long-polling reception, slash command
// extraction, inline keyboards, and chunked delivery of long replies.
// It also implements api.MembershipAware via GetChatMember.
type TelegramChannel struct {
	config       TelegramConfig     // Auth credentials
	bot          *tgbotapi.BotAPI   // Underlying Telegram SDK client
	messageLimit int                // Maximum character count per single message bubble
	stopCtx      context.Context    // Context used to forcibly abort the long-polling HTTP request
	stopCancel   context.CancelFunc // Function to trigger the abort
}

func NewTelegramChannel(cfg TelegramConfig, msgLimit int) (api.Channel, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Create a dedicated HTTP client for the bot so we can forcefully close it on reload.
	// By tying the DialContext to our stopCtx, active long-polling requests will be
	// instantly aborted when Stop() is called, preventing the 409 Conflict.
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	botHttpClient := &http.Client{
		Timeout: 90 * time.Second,
		Transport: &http.Transport{
			DialContext: func(dialCtx context.Context, network, addr string) (net.Conn, error) {
				mergedCtx, mergedCancel := context.WithCancel(dialCtx)
				go func() {
					select {
					case <-ctx.Done():
						mergedCancel()
					case <-mergedCtx.Done():
					}
				}()
				return dialer.DialContext(mergedCtx, network, addr)
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, botHttpClient)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

	return &TelegramChannel{
		config:       cfg,
		bot:          bot,
		messageLimit: msgLimit,
		stopCtx:      ctx,
		stopCancel:   cancel,
	}, nil
}

// ID returns the unique platform identifier "telegram".
func (t *TelegramChannel) ID() string {
	return "telegram"
}

// Start initiates the long-polling update loop in a background goroutine.
// Text messages and slash commands are mapped into the internal
// UnifiedMessage format; inline button presses are translated to the
// command they stand for.
func (t *TelegramChannel) Start(ctx api.ChannelContext) error {
	offset := 0

	// Process updates in a manual loop so the stopCtx can abort long polls.
	go func() {
		for {
			select {
			case <-t.stopCtx.Done():
				return // Gracefully exit on shutdown
			default:
			}

			reqConfig := tgbotapi.NewUpdate(offset)
			reqConfig.Timeout = 60

			updates, err := t.bot.GetUpdates(reqConfig)
			if err != nil {
				select {
				case <-t.stopCtx.Done():
					return // Ignore error if we are shutting down
				default:
					slog.Debug("Failed to get telegram updates", "error", err)
					time.Sleep(3 * time.Second)
					continue
				}
			}

			for _, update := range updates {
				if update.UpdateID >= offset {
					offset = update.UpdateID + 1
					t.handleUpdate(ctx, update)
				}
			}
		}
	}()

	return nil
}

func (t *TelegramChannel) handleUpdate(ctx api.ChannelContext, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		t.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}
	m := update.Message

	session := api.SessionContext{
		ChannelID: t.ID(),
		UserID:    m.From.ID,
		ChatID:    strconv.FormatInt(m.Chat.ID, 10),
		Username:  m.From.UserName,
	}

	msg := &api.UnifiedMessage{
		Session: session,
		Content: m.Text,
		Raw:     m,
	}
	if m.IsCommand() {
		msg.Command = m.Command()
		msg.Args = strings.Fields(m.CommandArguments())
	}

	ctx.OnMessage(t.ID(), msg)
}

// handleCallback translates inline button presses into the command each
// button stands for, so the handler sees one uniform command surface.
func (t *TelegramChannel) handleCallback(ctx api.ChannelContext, q *tgbotapi.CallbackQuery) {
	// Acknowledge the press so the client stops showing the spinner.
	if _, err := t.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		slog.Debug("Callback ack failed", "error", err)
	}

	command, ok := callbackCommand(q.Data)
	if !ok {
		slog.Debug("Ignoring unknown callback", "data", q.Data)
		return
	}

	if q.Message == nil {
		return
	}

	session := api.SessionContext{
		ChannelID: t.ID(),
		UserID:    q.From.ID,
		ChatID:    strconv.FormatInt(q.Message.Chat.ID, 10),
		Username:  q.From.UserName,
	}
	ctx.OnMessage(t.ID(), &api.UnifiedMessage{
		Session: session,
		Command: command,
		Raw:     q,
	})
}

// callbackCommand maps a callback data payload to the equivalent slash
// command name.
func callbackCommand(data string) (string, bool) {
	switch data {
	case "services_menu":
		return "services", true
	}
	return "", false
}

// Send delivers a text reply, splitting messages that exceed the platform
// limit into multiple bubbles. Inline buttons are attached to the final
// chunk so they appear under the complete reply.
func (t *TelegramChannel) Send(session api.SessionContext, message string, markup *api.ReplyMarkup) error {
	chatID, err := strconv.ParseInt(session.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id for telegram: %s", session.ChatID)
	}

	chunks := chunkMessage(message, t.messageLimit)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if markup != nil && i == len(chunks)-1 {
			msg.ReplyMarkup = toInlineKeyboard(markup)
		}
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send failed at chunk %d: %w", i, err)
		}
	}
	return nil
}

// SendSignal implements the api.SignalingChannel interface.
func (t *TelegramChannel) SendSignal(session api.SessionContext, signal string) error {
	if signal != "typing" {
		return nil
	}
	chatID, err := strconv.ParseInt(session.ChatID, 10, 64)
	if err != nil {
		return err
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, err = t.bot.Request(action)
	return err
}

// MemberStatus implements the api.MembershipAware interface by asking the
// Bot API for the user's standing in the named public channel. The bot must
// be an administrator of that channel for the query to succeed.
func (t *TelegramChannel) MemberStatus(ctx context.Context, channel string, userID int64) (string, error) {
	member, err := t.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channel,
			UserID:             userID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("get chat member: %w", err)
	}
	return member.Status, nil
}

func (t *TelegramChannel) Stop() error {
	t.stopCancel() // Cancel our custom long-polling loop immediately

	// Clear the pool; an active long poll is aborted through the dial context.
	if httpClient, ok := t.bot.Client.(*http.Client); ok && httpClient != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}

	return nil
}

// chunkMessage splits message into rune-safe pieces of at most limit runes.
// A message within the limit comes back as a single chunk.
func chunkMessage(message string, limit int) []string {
	msgRunes := []rune(message)
	totalLen := len(msgRunes)

	if totalLen <= limit {
		return []string{message}
	}

	var chunks []string
	for i := 0; i < totalLen; i += limit {
		end := i + limit
		if end > totalLen {
			end = totalLen
		}
		chunks = append(chunks, string(msgRunes[i:end]))
	}
	return chunks
}

// toInlineKeyboard converts the platform-neutral markup into a Telegram
// inline keyboard.
func toInlineKeyboard(markup *api.ReplyMarkup) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(markup.Buttons))
	for _, row := range markup.Buttons {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
