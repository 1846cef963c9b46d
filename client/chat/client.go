// Package chat is a client library for the realtime relay: it speaks the
// relay's JSON envelope protocol and keeps the client-side state (typing
// indicators, optimistic messages) that the server deliberately does not.
package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"group-chat-service/internal/ws"
)

// Event is an inbound relay frame, decoded one level deep.
type Event struct {
	Name string
	Data json.RawMessage
}

// Client is a websocket connection to the relay. Writes are safe for
// concurrent use; inbound frames arrive on Events until the connection
// drops or Close is called.
type Client struct {
	conn    *websocket.Conn
	events  chan Event
	writeMu sync.Mutex
	once    sync.Once
}

// Dial connects to the relay socket endpoint, e.g. ws://host:4000/socket.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:   conn,
		events: make(chan Event, 32),
	}
	go c.readLoop()
	return c, nil
}

// Events returns the inbound event stream. The channel is closed when the
// connection ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) readLoop() {
	defer c.once.Do(func() { close(c.events) })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env ws.Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			continue
		}
		c.events <- Event{Name: env.Event, Data: env.Data}
	}
}

func (c *Client) emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ws.Envelope{Event: event, Data: raw})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// JoinGroup subscribes this connection to a room.
func (c *Client) JoinGroup(groupID string) error {
	return c.emit(ws.EventJoinGroup, groupID)
}

// LeaveGroup unsubscribes this connection from a room.
func (c *Client) LeaveGroup(groupID string) error {
	return c.emit(ws.EventLeaveGroup, groupID)
}

// SendMessage relays a chat message to every member of the room, including
// this connection.
func (c *Client) SendMessage(groupID, userID, message, imageURL string) error {
	return c.emit(ws.EventSendMessage, ws.SendMessagePayload{
		GroupID:  groupID,
		UserID:   userID,
		Message:  message,
		ImageURL: imageURL,
	})
}

// Typing signals that userID is composing a message in the room.
func (c *Client) Typing(groupID, userID, userName string) error {
	return c.emit(ws.EventTyping, ws.TypingPayload{
		GroupID:  groupID,
		UserID:   userID,
		UserName: userName,
	})
}

// StopTyping clears the typing signal.
func (c *Client) StopTyping(groupID, userID, userName string) error {
	return c.emit(ws.EventStopTyping, ws.TypingPayload{
		GroupID:  groupID,
		UserID:   userID,
		UserName: userName,
	})
}

// ReadReceipt announces that userID has read messageID.
func (c *Client) ReadReceipt(groupID, messageID, userID string) error {
	return c.emit(ws.EventReadReceipt, ws.ReadReceiptPayload{
		GroupID:   groupID,
		MessageID: messageID,
		UserID:    userID,
	})
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
