package models

import "time"

// Group is a chat group. Members is loaded from the membership table; the
// creator is always the first member.
type Group struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatorID string    `db:"creator_id" json:"creatorId"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	Members   []string  `db:"-" json:"members"`
}
