package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeChecker struct {
	status     string
	err        error
	gotChannel string
	gotUserID  int64
}

func (f *fakeChecker) MemberStatus(ctx context.Context, channel string, userID int64) (string, error) {
	f.gotChannel = channel
	f.gotUserID = userID
	return f.status, f.err
}

func TestCheck_MemberStatuses(t *testing.T) {
	tests := []struct {
		status  string
		allowed bool
	}{
		{StatusMember, true},
		{StatusAdministrator, true},
		{StatusCreator, true},
		{"left", false},
		{"kicked", false},
		{"restricted", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			g := New("@mychannel", &fakeChecker{status: tt.status}, time.Second)
			d := g.Check(context.Background(), 42)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, "https://t.me/mychannel", d.JoinURL)
			}
		})
	}
}

func TestCheck_CheckerErrorFailsClosed(t *testing.T) {
	checker := &fakeChecker{err: errors.New("Bad Request: user not found")}
	g := New("@mychannel", checker, time.Second)

	d := g.Check(context.Background(), 42)

	assert.False(t, d.Allowed)
	assert.Equal(t, "https://t.me/mychannel", d.JoinURL)
	assert.Equal(t, "@mychannel", checker.gotChannel)
	assert.Equal(t, int64(42), checker.gotUserID)
}

func TestCheck_NoChannelConfiguredAllows(t *testing.T) {
	g := New("", &fakeChecker{status: "left"}, time.Second)
	assert.True(t, g.Check(context.Background(), 42).Allowed)
}

func TestCheck_NilCheckerAllows(t *testing.T) {
	g := New("@mychannel", nil, time.Second)
	assert.True(t, g.Check(context.Background(), 42).Allowed)
}

func TestCheck_TimeoutFailsClosed(t *testing.T) {
	slow := checkerFunc(func(ctx context.Context, channel string, userID int64) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return StatusMember, nil
		}
	})
	g := New("@mychannel", slow, 10*time.Millisecond)

	d := g.Check(context.Background(), 42)
	assert.False(t, d.Allowed)
}

type checkerFunc func(ctx context.Context, channel string, userID int64) (string, error)

func (f checkerFunc) MemberStatus(ctx context.Context, channel string, userID int64) (string, error) {
	return f(ctx, channel, userID)
}
