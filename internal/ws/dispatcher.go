package ws

import (
	"encoding/json"
	"time"
)

// Dispatcher maps one inbound envelope to zero or one broadcast plus registry
// updates. Malformed payloads are dropped without a response; the protocol has
// no error channel. No membership or identity check happens here: the relay
// trusts the asserted groupId/userId, matching the behavior clients rely on.
type Dispatcher struct {
	hub *Hub
	now func() time.Time
}

// NewDispatcher builds a Dispatcher around the hub.
func NewDispatcher(hub *Hub) *Dispatcher {
	return &Dispatcher{hub: hub, now: time.Now}
}

// Dispatch handles one raw frame read from the client's connection.
func (d *Dispatcher) Dispatch(c Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		return
	}

	switch env.Event {
	case EventJoinGroup:
		if roomID, ok := decodeRoomID(env.Data); ok {
			d.hub.Join(c, roomID)
		}
	case EventLeaveGroup:
		if roomID, ok := decodeRoomID(env.Data); ok {
			d.hub.Leave(c, roomID)
		}
	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.GroupID == "" || p.UserID == "" {
			return
		}
		out := OutboundMessage{
			GroupID:   p.GroupID,
			UserID:    p.UserID,
			Message:   p.Message,
			ImageURL:  p.ImageURL,
			CreatedAt: d.now().UTC().Format(time.RFC3339Nano),
			ReadBy:    []string{p.UserID},
		}
		// Inclusive: the sender's own tabs stay in sync and can reconcile
		// their optimistic copy against the echo.
		d.hub.Broadcast(p.GroupID, EventNewMessage, out, nil)
	case EventTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.GroupID == "" || p.UserID == "" {
			return
		}
		d.hub.Broadcast(p.GroupID, EventTyping, p, c)
	case EventStopTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.GroupID == "" || p.UserID == "" {
			return
		}
		d.hub.Broadcast(p.GroupID, EventStopTyping, TypingPayload{GroupID: p.GroupID, UserID: p.UserID}, c)
	case EventReadReceipt:
		var p ReadReceiptPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.GroupID == "" || p.UserID == "" || p.MessageID == "" {
			return
		}
		d.hub.Broadcast(p.GroupID, EventReadReceipt, p, nil)
	}
}

// Disconnect clears every room membership for the client. Called exactly once
// when the transport reports the connection gone.
func (d *Dispatcher) Disconnect(c Client) {
	d.hub.RemoveConnection(c)
}
