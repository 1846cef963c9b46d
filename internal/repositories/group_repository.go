package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"group-chat-service/internal/models"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrNotAMember    = errors.New("user is not a member")
)

// GroupRepository abstracts group persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, creatorID, name string) (models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	JoinGroup(ctx context.Context, groupID, userID string) error
	LeaveGroup(ctx context.Context, groupID, userID string) error
	DeleteGroup(ctx context.Context, groupID string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup creates a group with the creator as its first member.
func (r *GroupRepo) CreateGroup(ctx context.Context, creatorID, name string) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (id, name, creator_id) VALUES ($1, $2, $3) RETURNING id, name, creator_id, created_at`,
		uuid.NewString(), name, creatorID).StructScan(&group); err != nil {
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`, group.ID, creatorID); err != nil {
		return models.Group{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	group.Members = []string{creatorID}
	return group, nil
}

// ListGroups returns every group with its member ids.
func (r *GroupRepo) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups,
		`SELECT id, name, creator_id, created_at FROM groups ORDER BY created_at DESC`); err != nil {
		return nil, err
	}

	type membership struct {
		GroupID string `db:"group_id"`
		UserID  string `db:"user_id"`
	}
	var rows []membership
	if err := r.db.SelectContext(ctx, &rows, `SELECT group_id, user_id FROM group_members`); err != nil {
		return nil, err
	}

	membersByGroup := map[string][]string{}
	for _, row := range rows {
		membersByGroup[row.GroupID] = append(membersByGroup[row.GroupID], row.UserID)
	}
	for i := range groups {
		groups[i].Members = membersByGroup[groups[i].ID]
	}
	return groups, nil
}

// JoinGroup adds a member; joining twice is a no-op.
func (r *GroupRepo) JoinGroup(ctx context.Context, groupID, userID string) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM groups WHERE id=$1)`, groupID); err != nil {
		return err
	}
	if !exists {
		return ErrGroupNotFound
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, groupID, userID)
	return err
}

// LeaveGroup removes a member; ErrNotAMember when nothing was removed.
func (r *GroupRepo) LeaveGroup(ctx context.Context, groupID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotAMember
	}
	return nil
}

// DeleteGroup removes the group and, via cascade, its memberships.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, groupID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return exists, err
}
