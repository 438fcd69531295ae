// Package gate enforces the channel-subscription precondition in front of
// user-facing operations.
package gate

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Membership statuses that count as subscribed.
const (
	StatusMember        = "member"
	StatusAdministrator = "administrator"
	StatusCreator       = "creator"
)

// Checker answers whether a user belongs to the named platform channel.
// The Telegram channel provides the production implementation.
type Checker interface {
	MemberStatus(ctx context.Context, channel string, userID int64) (string, error)
}

// Decision is the result of one gate check.
type Decision struct {
	Allowed bool
	// JoinURL points the denied user at the channel to join.
	JoinURL string
}

// Gate verifies channel membership before an operation runs. A failed or
// errored check denies: the gate fails closed on purpose, conflating
// "not a member" with "could not check" exactly as the membership policy
// requires.
type Gate struct {
	channel string // required channel username, e.g. "@mychannel"; empty disables the gate
	checker Checker
	timeout time.Duration
}

// New creates a Gate for the given channel username. An empty channel or a
// nil checker produces a gate that allows everyone.
func New(channel string, checker Checker, timeout time.Duration) *Gate {
	return &Gate{channel: channel, checker: checker, timeout: timeout}
}

// JoinURL returns the public link for the required channel.
func (g *Gate) JoinURL() string {
	return "https://t.me/" + strings.TrimPrefix(g.channel, "@")
}

// Check reports whether userID may use the bot.
func (g *Gate) Check(ctx context.Context, userID int64) Decision {
	if g.channel == "" || g.checker == nil {
		return Decision{Allowed: true}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	status, err := g.checker.MemberStatus(ctx, g.channel, userID)
	if err != nil {
		slog.Warn("Membership check failed, denying", "user", userID, "channel", g.channel, "error", err)
		return Decision{Allowed: false, JoinURL: g.JoinURL()}
	}

	switch status {
	case StatusMember, StatusAdministrator, StatusCreator:
		return Decision{Allowed: true}
	}

	slog.Info("User is not a channel member", "user", userID, "channel", g.channel, "status", status)
	return Decision{Allowed: false, JoinURL: g.JoinURL()}
}
