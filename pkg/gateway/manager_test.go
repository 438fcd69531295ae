package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"relaybot/pkg/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeChannel struct {
	id       string
	started  bool
	stopped  bool
	sent     []string
	signals  []string
	statuses map[int64]string
}

func (c *fakeChannel) ID() string { return c.id }

func (c *fakeChannel) Start(ctx api.ChannelContext) error {
	c.started = true
	return nil
}

func (c *fakeChannel) Stop() error {
	c.stopped = true
	return nil
}

func (c *fakeChannel) Send(session api.SessionContext, message string, markup *api.ReplyMarkup) error {
	c.sent = append(c.sent, message)
	return nil
}

func (c *fakeChannel) SendSignal(session api.SessionContext, signal string) error {
	c.signals = append(c.signals, signal)
	return nil
}

func (c *fakeChannel) MemberStatus(ctx context.Context, channel string, userID int64) (string, error) {
	return c.statuses[userID], nil
}

// plainChannel implements only the base Channel interface, none of the
// optional capabilities.
type plainChannel struct {
	id string
}

func (c *plainChannel) ID() string                         { return c.id }
func (c *plainChannel) Start(ctx api.ChannelContext) error { return nil }
func (c *plainChannel) Stop() error                        { return nil }
func (c *plainChannel) Send(session api.SessionContext, message string, markup *api.ReplyMarkup) error {
	return nil
}

type recordingHandler struct {
	responder api.MessageResponder
	received  []*api.UnifiedMessage
}

func (h *recordingHandler) OnMessage(msg *api.UnifiedMessage) {
	h.received = append(h.received, msg)
}

func (h *recordingHandler) SetResponder(r api.MessageResponder) {
	h.responder = r
}

func TestBuilder_WiresEverything(t *testing.T) {
	ch := &fakeChannel{id: "telegram"}
	h := &recordingHandler{}

	gw, err := NewGatewayBuilder().
		WithChannel(ch).
		WithHandler(h).
		Build()
	require.NoError(t, err)

	assert.True(t, ch.started)
	assert.NotNil(t, h.responder)

	gw.OnMessage("telegram", &api.UnifiedMessage{
		Session: api.SessionContext{ChannelID: "telegram", UserID: 1},
		Content: "hello",
	})
	require.Len(t, h.received, 1)
	assert.Equal(t, "hello", h.received[0].Content)

	gw.StopAll()
	assert.True(t, ch.stopped)
}

func TestSendReply_RoutesToOriginChannel(t *testing.T) {
	ch := &fakeChannel{id: "telegram"}
	gw := NewGatewayManager()
	gw.Register(ch)

	session := api.SessionContext{ChannelID: "telegram", UserID: 1}
	require.NoError(t, gw.SendReply(session, "pong"))
	assert.Equal(t, []string{"pong"}, ch.sent)
}

func TestSendReply_UnknownChannel(t *testing.T) {
	gw := NewGatewayManager()
	err := gw.SendReply(api.SessionContext{ChannelID: "nope"}, "text")
	assert.Error(t, err)
}

func TestSendSignal_IgnoredWithoutCapability(t *testing.T) {
	ch := &plainChannel{id: "web"}
	gw := NewGatewayManager()
	gw.Register(ch)

	// Must not panic and must not error: the capability is optional.
	assert.NoError(t, gw.SendSignal(api.SessionContext{ChannelID: "web"}, "typing"))
}

func TestMembershipChecker_CapabilityLookup(t *testing.T) {
	gw := NewGatewayManager()
	gw.Register(&fakeChannel{id: "telegram", statuses: map[int64]string{7: "member"}})

	mc, ok := gw.MembershipChecker("telegram")
	require.True(t, ok)
	status, err := mc.MemberStatus(context.Background(), "@chan", 7)
	require.NoError(t, err)
	assert.Equal(t, "member", status)

	_, ok = gw.MembershipChecker("missing")
	assert.False(t, ok)
}
