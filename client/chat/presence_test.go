package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTypingExpiresAfterQuietPeriod(t *testing.T) {
	p := newPresenceTracker(40 * time.Millisecond)

	p.Typing("room1", "u1", "alice")
	require.Equal(t, []string{"u1"}, p.TypingUsers("room1"))

	require.Eventually(t, func() bool {
		return len(p.TypingUsers("room1")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTypingDebouncedByRepeatEvents(t *testing.T) {
	p := newPresenceTracker(60 * time.Millisecond)

	p.Typing("room1", "u1", "alice")
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		p.Typing("room1", "u1", "alice")
	}

	// 120ms after the first event the indicator is still live because each
	// repeat reset the timer.
	require.Equal(t, []string{"u1"}, p.TypingUsers("room1"))

	require.Eventually(t, func() bool {
		return len(p.TypingUsers("room1")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStopTypingClearsImmediately(t *testing.T) {
	p := newPresenceTracker(time.Minute)

	p.Typing("room1", "u1", "alice")
	p.Typing("room1", "u2", "bob")
	p.StopTyping("room1", "u1")

	require.Equal(t, []string{"u2"}, p.TypingUsers("room1"))
}

func TestTypingScopedPerRoom(t *testing.T) {
	p := newPresenceTracker(time.Minute)

	p.Typing("room1", "u1", "alice")
	p.Typing("room2", "u1", "alice")
	p.StopTyping("room1", "u1")

	require.Empty(t, p.TypingUsers("room1"))
	require.Equal(t, []string{"u1"}, p.TypingUsers("room2"))
}

func TestUserNameTracked(t *testing.T) {
	p := newPresenceTracker(time.Minute)

	p.Typing("room1", "u1", "alice")
	name, ok := p.UserName("room1", "u1")
	require.True(t, ok)
	require.Equal(t, "alice", name)

	p.StopTyping("room1", "u1")
	_, ok = p.UserName("room1", "u1")
	require.False(t, ok)
}

func TestStopTypingUnknownUserIsNoOp(t *testing.T) {
	p := newPresenceTracker(time.Minute)
	p.StopTyping("room1", "ghost")
	require.Empty(t, p.TypingUsers("room1"))
}
