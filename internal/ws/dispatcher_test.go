package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func dispatch(t *testing.T, d *Dispatcher, c Client, event string, data string) {
	t.Helper()
	frame := `{"event":"` + event + `","data":` + data + `}`
	d.Dispatch(c, []byte(frame))
}

func TestJoinGroupAcceptsStringAndObject(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub)
	a := &fakeClient{id: "a"}
	b := &fakeClient{id: "b"}

	dispatch(t, d, a, EventJoinGroup, `"g1"`)
	dispatch(t, d, b, EventJoinGroup, `{"groupId":"g1"}`)

	require.Len(t, hub.Members("g1"), 2)
}

func TestSendMessageStampsTimestampAndReadBy(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub)
	x := &fakeClient{id: "x"}
	y := &fakeClient{id: "y"}
	dispatch(t, d, x, EventJoinGroup, `"g1"`)
	dispatch(t, d, y, EventJoinGroup, `"g1"`)

	before := time.Now().UTC()
	dispatch(t, d, x, EventSendMessage, `{"groupId":"g1","userId":"u1","message":"hi"}`)

	for _, cl := range []*fakeClient{x, y} {
		envs := cl.envelopes(t)
		require.Len(t, envs, 1, "inclusive broadcast reaches the sender too")
		require.Equal(t, EventNewMessage, envs[0].Event)

		var out OutboundMessage
		require.NoError(t, json.Unmarshal(envs[0].Data, &out))
		require.Equal(t, "g1", out.GroupID)
		require.Equal(t, "u1", out.UserID)
		require.Equal(t, "hi", out.Message)
		require.Equal(t, []string{"u1"}, out.ReadBy)

		createdAt, err := time.Parse(time.RFC3339Nano, out.CreatedAt)
		require.NoError(t, err)
		require.False(t, createdAt.Before(before.Truncate(time.Second)))
	}
}

func TestTypingExcludesSender(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub)
	x := &fakeClient{id: "x"}
	y := &fakeClient{id: "y"}
	dispatch(t, d, x, EventJoinGroup, `"g1"`)
	dispatch(t, d, y, EventJoinGroup, `"g1"`)

	dispatch(t, d, x, EventTyping, `{"groupId":"g1","userId":"u1","userName":"Uma"}`)

	require.Empty(t, x.envelopes(t))
	envs := y.envelopes(t)
	require.Len(t, envs, 1)
	require.Equal(t, EventTyping, envs[0].Event)

	var p TypingPayload
	require.NoError(t, json.Unmarshal(envs[0].Data, &p))
	require.Equal(t, TypingPayload{GroupID: "g1", UserID: "u1", UserName: "Uma"}, p)
}

func TestStopTypingExcludesSender(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub)
	x := &fakeClient{id: "x"}
	y := &fakeClient{id: "y"}
	dispatch(t, d, x, EventJoinGroup, `"g1"`)
	dispatch(t, d, y, EventJoinGroup, `"g1"`)

	dispatch(t, d, x, EventStopTyping, `{"groupId":"g1","userId":"u1"}`)

	require.Empty(t, x.envelopes(t))
	require.Len(t, y.envelopes(t), 1)
}

func TestReadReceiptForwardedInclusive(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub)
	x := &fakeClient{id: "x"}
	y := &fakeClient{id: "y"}
	dispatch(t, d, x, EventJoinGroup, `"g1"`)
	dispatch(t, d, y, EventJoinGroup, `"g1"`)

	dispatch(t, d, y, EventReadReceipt, `{"groupId":"g1","messageId":"m1","userId":"u2"}`)

	for _, cl := range []*fakeClient{x, y} {
		envs := cl.envelopes(t)
		require.Len(t, envs, 1)
		var p ReadReceiptPayload
		require.NoError(t, json.Unmarshal(envs[0].Data, &p))
		require.Equal(t, ReadReceiptPayload{GroupID: "g1", MessageID: "m1", UserID: "u2"}, p)
	}
}

func TestMalformedPayloadsDroppedSilently(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub)
	x := &fakeClient{id: "x"}
	y := &fakeClient{id: "y"}
	dispatch(t, d, x, EventJoinGroup, `"g1"`)
	dispatch(t, d, y, EventJoinGroup, `"g1"`)

	d.Dispatch(x, []byte(`not json`))
	d.Dispatch(x, []byte(`{"event":"sendMessage","data":{"userId":"u1","message":"no group"}}`))
	d.Dispatch(x, []byte(`{"event":"sendMessage","data":{"groupId":42,"userId":"u1"}}`))
	d.Dispatch(x, []byte(`{"event":"typing","data":{"groupId":"g1"}}`))
	d.Dispatch(x, []byte(`{"event":"readReceipt","data":{"groupId":"g1","userId":"u2"}}`))
	d.Dispatch(x, []byte(`{"event":"unknownEvent","data":{}}`))

	require.Empty(t, x.envelopes(t))
	require.Empty(t, y.envelopes(t))
}

func TestLeaveGroupStopsDelivery(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub)
	x := &fakeClient{id: "x"}
	y := &fakeClient{id: "y"}
	dispatch(t, d, x, EventJoinGroup, `"g1"`)
	dispatch(t, d, y, EventJoinGroup, `"g1"`)

	dispatch(t, d, x, EventLeaveGroup, `"g1"`)
	dispatch(t, d, y, EventSendMessage, `{"groupId":"g1","userId":"u2","message":"bye"}`)

	require.Empty(t, x.envelopes(t))
	require.Len(t, y.envelopes(t), 1)
}

func TestDisconnectClearsMemberships(t *testing.T) {
	hub := NewHub()
	d := NewDispatcher(hub)
	x := &fakeClient{id: "x"}
	y := &fakeClient{id: "y"}
	dispatch(t, d, x, EventJoinGroup, `"g1"`)
	dispatch(t, d, x, EventJoinGroup, `"g2"`)
	dispatch(t, d, y, EventJoinGroup, `"g1"`)

	d.Disconnect(x)

	dispatch(t, d, y, EventSendMessage, `{"groupId":"g1","userId":"u2","message":"hi"}`)
	require.Empty(t, x.envelopes(t))
	require.Len(t, y.envelopes(t), 1)
}

func TestSenderNotJoinedStillBroadcasts(t *testing.T) {
	// The relay does not verify that the sending connection joined the room;
	// preserved as-observed from the protocol.
	hub := NewHub()
	d := NewDispatcher(hub)
	outsider := &fakeClient{id: "outsider"}
	member := &fakeClient{id: "member"}
	dispatch(t, d, member, EventJoinGroup, `"g1"`)

	dispatch(t, d, outsider, EventSendMessage, `{"groupId":"g1","userId":"ghost","message":"boo"}`)

	require.Len(t, member.envelopes(t), 1)
	require.Empty(t, outsider.envelopes(t))
}
