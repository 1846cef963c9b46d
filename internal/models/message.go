package models

import (
	"time"

	"github.com/lib/pq"
)

// Message is a persisted group message. Message bodies are opaque to the
// service; clients may store ciphertext. ReadBy only ever grows.
type Message struct {
	ID        string         `db:"id" json:"id"`
	GroupID   string         `db:"group_id" json:"groupId"`
	UserID    string         `db:"user_id" json:"userId"`
	Message   string         `db:"message" json:"message"`
	ImageURL  string         `db:"image_url" json:"imageUrl,omitempty"`
	ReadBy    pq.StringArray `db:"read_by" json:"readBy"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// MessageWithSender decorates a message with the sender's display name for
// API responses.
type MessageWithSender struct {
	Message
	UserName string `db:"user_name" json:"userName,omitempty"`
}
