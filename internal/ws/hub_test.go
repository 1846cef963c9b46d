package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	broken bool
	closed bool
}

func (f *fakeClient) ID() string { return f.id }

func (f *fakeClient) Write(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("connection gone")
	}
	f.frames = append(f.frames, payload)
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) envelopes(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	envs := make([]Envelope, 0, len(f.frames))
	for _, frame := range f.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		envs = append(envs, env)
	}
	return envs
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := &fakeClient{id: "c1"}

	hub.Join(c, "g1")
	hub.Join(c, "g1")
	hub.Join(c, "g1")

	require.Len(t, hub.Members("g1"), 1)

	hub.Broadcast("g1", EventNewMessage, OutboundMessage{GroupID: "g1"}, nil)
	require.Len(t, c.envelopes(t), 1, "duplicate join must not double-deliver")
}

func TestLeaveUnknownRoomIsNoOp(t *testing.T) {
	hub := NewHub()
	c := &fakeClient{id: "c1"}

	hub.Leave(c, "never-joined")
	require.Empty(t, hub.Members("never-joined"))
}

func TestRemoveConnectionClearsAllRooms(t *testing.T) {
	hub := NewHub()
	c := &fakeClient{id: "c1"}
	other := &fakeClient{id: "c2"}

	hub.Join(c, "g1")
	hub.Join(c, "g2")
	hub.Join(other, "g1")

	hub.RemoveConnection(c)

	require.Len(t, hub.Members("g1"), 1)
	require.Empty(t, hub.Members("g2"), "empty room is dropped")
}

func TestRemoveConnectionNeverJoined(t *testing.T) {
	hub := NewHub()
	hub.RemoveConnection(&fakeClient{id: "loner"})
}

func TestInclusiveBroadcastReachesSender(t *testing.T) {
	hub := NewHub()
	a := &fakeClient{id: "a"}
	b := &fakeClient{id: "b"}
	c := &fakeClient{id: "c"}
	for _, cl := range []*fakeClient{a, b, c} {
		hub.Join(cl, "g1")
	}

	hub.Broadcast("g1", EventReadReceipt, ReadReceiptPayload{GroupID: "g1", MessageID: "m1", UserID: "u1"}, nil)

	for _, cl := range []*fakeClient{a, b, c} {
		require.Len(t, cl.envelopes(t), 1)
	}
}

func TestExclusiveBroadcastSkipsSender(t *testing.T) {
	hub := NewHub()
	a := &fakeClient{id: "a"}
	b := &fakeClient{id: "b"}
	c := &fakeClient{id: "c"}
	for _, cl := range []*fakeClient{a, b, c} {
		hub.Join(cl, "g1")
	}

	hub.Broadcast("g1", EventTyping, TypingPayload{GroupID: "g1", UserID: "u1"}, a)

	require.Empty(t, a.envelopes(t))
	require.Len(t, b.envelopes(t), 1)
	require.Len(t, c.envelopes(t), 1)
}

func TestBroadcastScopedToRoom(t *testing.T) {
	hub := NewHub()
	in := &fakeClient{id: "in"}
	out := &fakeClient{id: "out"}
	hub.Join(in, "g1")
	hub.Join(out, "g2")

	hub.Broadcast("g1", EventNewMessage, OutboundMessage{GroupID: "g1"}, nil)

	require.Len(t, in.envelopes(t), 1)
	require.Empty(t, out.envelopes(t))
}

func TestDeadConnectionRemovedSilently(t *testing.T) {
	hub := NewHub()
	dead := &fakeClient{id: "dead", broken: true}
	live := &fakeClient{id: "live"}
	hub.Join(dead, "g1")
	hub.Join(live, "g1")

	hub.Broadcast("g1", EventNewMessage, OutboundMessage{GroupID: "g1"}, nil)

	require.Len(t, live.envelopes(t), 1)
	require.True(t, dead.closed)
	require.Len(t, hub.Members("g1"), 1)

	// Next broadcast no longer attempts the dead connection.
	hub.Broadcast("g1", EventNewMessage, OutboundMessage{GroupID: "g1"}, nil)
	require.Len(t, live.envelopes(t), 2)
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c := &fakeClient{id: string(rune('a' + n))}
			for j := 0; j < 50; j++ {
				hub.Join(c, "g1")
				hub.Broadcast("g1", EventTyping, TypingPayload{GroupID: "g1", UserID: "u"}, c)
				hub.Leave(c, "g1")
			}
			hub.RemoveConnection(c)
		}(i)
	}
	wg.Wait()
	require.Empty(t, hub.Members("g1"))
}
