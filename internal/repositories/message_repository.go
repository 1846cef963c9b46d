package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"group-chat-service/internal/models"
)

// MessageRepository abstracts message persistence. Persistence is a
// best-effort path independent of the realtime broadcast.
type MessageRepository interface {
	CreateMessage(ctx context.Context, groupID, userID, message, imageURL string) (models.Message, error)
	ListGroupMessages(ctx context.Context, groupID string) ([]models.MessageWithSender, error)
	MarkRead(ctx context.Context, messageID, userID string) error
}

// MessageRepo is a sqlx-backed implementation.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage persists a message with the read-by set seeded with the
// sender.
func (r *MessageRepo) CreateMessage(ctx context.Context, groupID, userID, message, imageURL string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, group_id, user_id, message, image_url, read_by)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id, group_id, user_id, message, image_url, read_by, created_at`,
		uuid.NewString(), groupID, userID, message, imageURL, pq.StringArray{userID}).StructScan(&msg)
	return msg, err
}

// ListGroupMessages returns the group's messages in arrival order, with the
// sender's display name joined in.
func (r *MessageRepo) ListGroupMessages(ctx context.Context, groupID string) ([]models.MessageWithSender, error) {
	var msgs []models.MessageWithSender
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT m.id, m.group_id, m.user_id, m.message, m.image_url, m.read_by, m.created_at,
                COALESCE(u.name, '') AS user_name
         FROM messages m
         LEFT JOIN users u ON u.id = m.user_id
         WHERE m.group_id=$1
         ORDER BY m.created_at ASC`, groupID)
	return msgs, err
}

// MarkRead merges a reader into the message's read-by set. The union is
// monotonic: applying the same receipt twice leaves the set unchanged.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID, userID string) error {
	// Zero rows affected means already read or unknown message; both are
	// fine for a best-effort receipt.
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_by = array_append(read_by, $2)
         WHERE id=$1 AND NOT ($2 = ANY(read_by))`, messageID, userID)
	return err
}
