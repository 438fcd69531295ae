// Package handler turns unified inbound messages into replies: commands
// mutate or display per-user configuration, free text is routed to the
// user's provider and dispatched.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"relaybot/pkg/api"
	"relaybot/pkg/dispatch"
	"relaybot/pkg/gate"
	"relaybot/pkg/provider"
	"relaybot/pkg/router"
	"relaybot/pkg/store"
)

const botVersion = "2.0.0"

const (
	welcomeText = "Welcome to the AI Chat Bot, where you can search anything on the internet with Artificial Intelligence.\n\n" +
		"By default, your queries will search on Google. You can also connect with multiple LLMs like Gemini, GPT, and Claude.\n\n" +
		"Press the button below or type /services to see all available services."

	helpText = "Here's how to use me:\n\n" +
		"1. Send any message: I will process it using your default provider (Google by default).\n\n" +
		"2. Set API Keys:\n" +
		"   - /gemini_api YOUR_API_KEY\n" +
		"   - /gpt_api YOUR_API_KEY\n" +
		"   - /claude_api YOUR_API_KEY\n\n" +
		"3. Set Default Provider:\n" +
		"   - /def_google - Search Google (default)\n" +
		"   - /def_gemini - Use Gemini 1.5 Flash\n" +
		"   - /def_gpt - Use GPT-4o Mini\n" +
		"   - /def_claude - Use Claude 3 Haiku\n\n" +
		"4. Specialized Searches:\n" +
		"   - /wikipedia <search query> - Search directly on Wikipedia.\n\n" +
		"Use /services to see a list of all commands."

	servicesText = "Available Services:\n\n" +
		"🔍 Google Search: The default search provider.\n" +
		"💎 Google Gemini: Advanced and fast AI model.\n" +
		"🤖 OpenAI GPT: Powerful and creative AI model.\n" +
		"💡 Anthropic Claude: State-of-the-art conversational AI.\n" +
		"🌐 Wikipedia: Direct search on the encyclopedia.\n\n" +
		"Use /help for a full list of commands."

	joinText    = "You must join our channel to use this bot. Please join and then try again."
	failureText = "Sorry, an error occurred while processing your request. Please check your API key and the service status."
)

// membershipSource is the optional responder capability used to locate the
// membership checker of the channel a message arrived on.
type membershipSource interface {
	MembershipChecker(channelID string) (api.MembershipAware, bool)
}

// BotHandler processes every inbound message: it applies the subscription
// gate, executes commands against the user store, and routes free text
// through the Router and Dispatcher.
type BotHandler struct {
	responder         api.MessageResponder
	memberships       membershipSource
	users             *store.UserStore
	router            *router.Router
	dispatcher        *dispatch.Dispatcher
	wiki              provider.EncyclopediaClient
	requiredChannel   string
	membershipTimeout time.Duration
	lookupTimeout     time.Duration
	wikiSummaryLimit  int
}

// Options carries the dependencies and tuning for a BotHandler.
type Options struct {
	Users             *store.UserStore
	Router            *router.Router
	Dispatcher        *dispatch.Dispatcher
	Wiki              provider.EncyclopediaClient
	RequiredChannel   string
	MembershipTimeout time.Duration
	LookupTimeout     time.Duration
	WikiSummaryLimit  int
}

// New creates a BotHandler. The responder is injected later via
// SetResponder when the gateway is built.
func New(opts Options) *BotHandler {
	return &BotHandler{
		users:             opts.Users,
		router:            opts.Router,
		dispatcher:        opts.Dispatcher,
		wiki:              opts.Wiki,
		requiredChannel:   opts.RequiredChannel,
		membershipTimeout: opts.MembershipTimeout,
		lookupTimeout:     opts.LookupTimeout,
		wikiSummaryLimit:  opts.WikiSummaryLimit,
	}
}

// SetResponder implements api.ResponderAware.
func (h *BotHandler) SetResponder(r api.MessageResponder) {
	h.responder = r
	if ms, ok := r.(membershipSource); ok {
		h.memberships = ms
	}
}

// OnMessage is the entry point for every inbound message.
func (h *BotHandler) OnMessage(msg *api.UnifiedMessage) {
	ctx := context.Background()

	// /version is the one gate-exempt operation.
	if msg.Command == "version" {
		h.reply(msg.Session, fmt.Sprintf("Bot Version: %s", botVersion))
		return
	}

	if !h.passGate(ctx, msg.Session) {
		return
	}

	// First contact creates the record with defaults; later contacts are a
	// no-op write. A failing store aborts the request visibly.
	if err := h.users.Upsert(ctx, msg.Session.UserID, store.Patch{}); err != nil {
		slog.Error("User upsert failed", "user", msg.Session.UserID, "error", err)
		h.reply(msg.Session, failureText)
		return
	}

	switch msg.Command {
	case "":
		h.handleFreeText(ctx, msg)
	case "start":
		h.handleStart(msg.Session)
	case "help":
		h.reply(msg.Session, helpText)
	case "services":
		h.reply(msg.Session, servicesText)
	case "wikipedia":
		h.handleWikipedia(ctx, msg)
	case "gemini_api", "gpt_api", "claude_api":
		h.handleSetAPIKey(ctx, msg)
	case "def_google", "def_gemini", "def_gpt", "def_claude":
		h.handleSetDefault(ctx, msg)
	default:
		if strings.HasSuffix(msg.Command, "_api") {
			h.reply(msg.Session, "Unknown API command.")
			return
		}
		slog.Debug("Ignoring unknown command", "command", msg.Command, "user", msg.Session.UserID)
	}
}

// passGate runs the subscription gate for the message's originating channel.
// Channels that cannot answer membership questions are exempt, mirroring the
// "no required channel configured" case. Returns false when the user was
// denied (and the join prompt already sent).
func (h *BotHandler) passGate(ctx context.Context, session api.SessionContext) bool {
	if h.requiredChannel == "" || h.memberships == nil {
		return true
	}

	checker, ok := h.memberships.MembershipChecker(session.ChannelID)
	if !ok {
		return true
	}

	g := gate.New(h.requiredChannel, checker, h.membershipTimeout)
	decision := g.Check(ctx, session.UserID)
	if decision.Allowed {
		return true
	}

	markup := &api.ReplyMarkup{Buttons: [][]api.InlineButton{{
		{Text: "Join Channel", URL: decision.JoinURL},
	}}}
	if err := h.responder.SendReplyMarkup(session, joinText, markup); err != nil {
		slog.Error("Failed to send join prompt", "user", session.UserID, "error", err)
	}
	return false
}

func (h *BotHandler) handleStart(session api.SessionContext) {
	markup := &api.ReplyMarkup{Buttons: [][]api.InlineButton{{
		{Text: "Services", CallbackData: "services_menu"},
	}}}
	if err := h.responder.SendReplyMarkup(session, welcomeText, markup); err != nil {
		slog.Error("Failed to send welcome", "user", session.UserID, "error", err)
	}
}

func (h *BotHandler) handleFreeText(ctx context.Context, msg *api.UnifiedMessage) {
	if strings.TrimSpace(msg.Content) == "" {
		return
	}

	rec, err := h.users.Get(ctx, msg.Session.UserID)
	if err != nil || rec == nil {
		slog.Error("User lookup failed", "user", msg.Session.UserID, "error", err)
		h.reply(msg.Session, failureText)
		return
	}

	call, err := h.router.Resolve(rec, "")
	if err != nil {
		h.replyResolveError(msg.Session, err)
		return
	}

	h.responder.SendSignal(msg.Session, "typing")

	outcome := h.dispatcher.Dispatch(ctx, call, msg.Content)
	h.reply(msg.Session, outcome.Text)
}

func (h *BotHandler) handleWikipedia(ctx context.Context, msg *api.UnifiedMessage) {
	query := strings.Join(msg.Args, " ")
	if query == "" {
		h.reply(msg.Session, "Please provide a search term. Usage: /wikipedia <query>")
		return
	}

	h.responder.SendSignal(msg.Session, "typing")

	lookupCtx, cancel := context.WithTimeout(ctx, h.lookupTimeout)
	defer cancel()

	page, err := h.wiki.Lookup(lookupCtx, query)
	if err != nil {
		slog.Error("Wikipedia lookup failed", "query", query, "error", err)
		h.reply(msg.Session, failureText)
		return
	}

	if !page.Exists {
		h.reply(msg.Session, fmt.Sprintf("Sorry, I couldn't find a Wikipedia page for '%s'.", query))
		return
	}

	summary := truncate(page.Summary, h.wikiSummaryLimit)
	h.reply(msg.Session, fmt.Sprintf("%s\n\n%s...\n\nRead more: %s", page.Title, summary, page.URL))
}

func (h *BotHandler) handleSetAPIKey(ctx context.Context, msg *api.UnifiedMessage) {
	if len(msg.Args) == 0 {
		h.reply(msg.Session, fmt.Sprintf("Please provide an API key. Usage: /%s YOUR_KEY", msg.Command))
		return
	}
	key := msg.Args[0]

	var patch store.Patch
	var display string
	switch msg.Command {
	case "gemini_api":
		patch.GeminiKey = store.StringPtr(key)
		display = "Gemini"
	case "gpt_api":
		patch.GPTKey = store.StringPtr(key)
		display = "GPT"
	case "claude_api":
		patch.ClaudeKey = store.StringPtr(key)
		display = "Claude"
	default:
		h.reply(msg.Session, "Unknown API command.")
		return
	}

	if err := h.users.Upsert(ctx, msg.Session.UserID, patch); err != nil {
		slog.Error("Credential upsert failed", "user", msg.Session.UserID, "error", err)
		h.reply(msg.Session, failureText)
		return
	}
	h.reply(msg.Session, fmt.Sprintf("✅ %s API key has been set successfully!", display))
}

func (h *BotHandler) handleSetDefault(ctx context.Context, msg *api.UnifiedMessage) {
	providerID := strings.TrimPrefix(msg.Command, "def_")

	desc, err := h.router.SetDefault(ctx, msg.Session.UserID, providerID)
	if err != nil {
		h.replyResolveError(msg.Session, err)
		return
	}

	if desc.ID == provider.Google {
		h.reply(msg.Session, "Default provider set to Google Search.")
		return
	}
	h.reply(msg.Session, fmt.Sprintf("✅ Default provider set to %s.", desc.DisplayName))
}

// replyResolveError renders router errors: a missing credential becomes an
// instructional message naming the exact command; anything else (storage,
// unknown provider) is the generic failure.
func (h *BotHandler) replyResolveError(session api.SessionContext, err error) {
	var missing *router.MissingCredentialError
	if errors.As(err, &missing) {
		h.reply(session, fmt.Sprintf(
			"❗️ API token for %s not found. Please set it first using %s YOUR_KEY.",
			missing.Provider.DisplayName, missing.Provider.CredentialCommand))
		return
	}

	slog.Error("Provider resolution failed", "user", session.UserID, "error", err)
	h.reply(session, failureText)
}

func (h *BotHandler) reply(session api.SessionContext, text string) {
	if err := h.responder.SendReply(session, text); err != nil {
		slog.Error("Failed to send reply", "user", session.UserID, "error", err)
	}
}

// truncate cuts s to at most limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
