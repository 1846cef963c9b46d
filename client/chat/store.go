package chat

import (
	"sync"

	"github.com/google/uuid"
)

const optimisticIDPrefix = "temp_"

// StoredMessage is one message in the client's local view of a room.
type StoredMessage struct {
	ID        string
	GroupID   string
	UserID    string
	Message   string
	ImageURL  string
	CreatedAt string
	ReadBy    []string
}

// MessageStore keeps the client's local message lists and reconciles relay
// echoes against optimistic sends. A message sent locally appears at once
// under a temp_ id; when the relay's newMessage echo arrives, the echo
// replaces the placeholder in place instead of duplicating it.
type MessageStore struct {
	mu       sync.Mutex
	messages map[string][]StoredMessage
}

// NewMessageStore returns an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{messages: make(map[string][]StoredMessage)}
}

// AddOptimistic appends a locally sent message under a fresh temp_ id and
// returns that id.
func (s *MessageStore) AddOptimistic(groupID, userID, message, imageURL string) string {
	id := optimisticIDPrefix + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[groupID] = append(s.messages[groupID], StoredMessage{
		ID:       id,
		GroupID:  groupID,
		UserID:   userID,
		Message:  message,
		ImageURL: imageURL,
		ReadBy:   []string{userID},
	})
	return id
}

// Apply folds an inbound message into the room. A message whose id is
// already present is ignored; otherwise, if a pending optimistic entry
// matches on (UserID, Message), the inbound message replaces it in place.
func (s *MessageStore) Apply(msg StoredMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[msg.GroupID]
	for _, existing := range list {
		if existing.ID == msg.ID {
			return
		}
	}

	for i, existing := range list {
		if isOptimisticID(existing.ID) && existing.UserID == msg.UserID && existing.Message == msg.Message {
			list[i] = msg
			return
		}
	}

	s.messages[msg.GroupID] = append(list, msg)
}

// MarkRead merges userID into the message's ReadBy set. Marking an already
// present reader is a no-op, so replayed receipts cannot shrink or reorder
// the set.
func (s *MessageStore) MarkRead(groupID, messageID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[groupID]
	for i := range list {
		if list[i].ID != messageID {
			continue
		}
		for _, reader := range list[i].ReadBy {
			if reader == userID {
				return
			}
		}
		list[i].ReadBy = append(list[i].ReadBy, userID)
		return
	}
}

// Messages returns a snapshot of the room's messages in arrival order.
func (s *MessageStore) Messages(groupID string) []StoredMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[groupID]
	out := make([]StoredMessage, len(list))
	copy(out, list)
	return out
}

func isOptimisticID(id string) bool {
	return len(id) >= len(optimisticIDPrefix) && id[:len(optimisticIDPrefix)] == optimisticIDPrefix
}
