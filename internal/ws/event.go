package ws

import "encoding/json"

// Event names accepted from and emitted to clients. Names and payload field
// names are part of the wire contract with existing clients.
const (
	EventJoinGroup   = "joinGroup"
	EventLeaveGroup  = "leaveGroup"
	EventSendMessage = "sendMessage"
	EventNewMessage  = "newMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventReadReceipt = "readReceipt"
)

// Envelope frames every message on the socket: an event name plus one JSON
// argument.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SendMessagePayload is the inbound sendMessage argument.
type SendMessagePayload struct {
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// OutboundMessage is the newMessage broadcast: the inbound payload plus the
// server-stamped timestamp and the read-by set seeded with the sender.
type OutboundMessage struct {
	GroupID   string   `json:"groupId"`
	UserID    string   `json:"userId"`
	Message   string   `json:"message"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	CreatedAt string   `json:"createdAt"`
	ReadBy    []string `json:"readBy"`
}

// TypingPayload is forwarded verbatim for typing; stopTyping carries the same
// shape without userName.
type TypingPayload struct {
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

// ReadReceiptPayload signals that UserID has read MessageID.
type ReadReceiptPayload struct {
	GroupID   string `json:"groupId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// decodeRoomID accepts either a bare JSON string or a {"groupId": ...} object;
// the stock client emits the bare string for joinGroup/leaveGroup.
func decodeRoomID(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, true
	}
	var obj struct {
		GroupID string `json:"groupId"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.GroupID != "" {
		return obj.GroupID, true
	}
	return "", false
}
