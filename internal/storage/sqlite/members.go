package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pvidal/amigoinvisible/internal/models"
	"github.com/pvidal/amigoinvisible/internal/storage"
)

// AddMember inserts a new membership row.
// The UNIQUE (group_id, user_id) constraint rejects double joins.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Membership) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_members (id, group_id, user_id, user_email, user_name, assigned_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.GroupID, member.UserID, member.UserEmail, member.UserName,
		nullable(member.AssignedTo), member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}

	s.Emit(storage.ChangeEvent{Table: "group_members", GroupID: member.GroupID, Op: storage.OpInsert})
	return nil
}

// GetMember retrieves one user's membership in one group.
func (s *SQLiteStore) GetMember(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	member := &models.Membership{}
	var assignedTo sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, group_id, user_id, user_email, user_name, assigned_to, created_at
		FROM group_members
		WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&member.ID, &member.GroupID, &member.UserID, &member.UserEmail, &member.UserName, &assignedTo, &member.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	member.AssignedTo = assignedTo.String
	return member, nil
}

// ListMembers retrieves all memberships of a group, oldest first.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, user_email, user_name, assigned_to, created_at
		FROM group_members
		WHERE group_id = ?
		ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Membership
	for rows.Next() {
		member := &models.Membership{}
		var assignedTo sql.NullString
		if err := rows.Scan(&member.ID, &member.GroupID, &member.UserID, &member.UserEmail,
			&member.UserName, &assignedTo, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		member.AssignedTo = assignedTo.String
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// ApplyDraw commits a draw result in a single transaction: every listed
// membership gets its assigned_to set and the group is flagged drawn.
// If any membership row is missing the whole transaction rolls back, so an
// observer never sees a drawn group with a partial assignment set.
func (s *SQLiteStore) ApplyDraw(ctx context.Context, groupID string, assignedTo map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for memberID, userID := range assignedTo {
		res, err := tx.ExecContext(ctx,
			"UPDATE group_members SET assigned_to = ? WHERE id = ? AND group_id = ?",
			userID, memberID, groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check assignment update: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
		}
	}

	res, err := tx.ExecContext(ctx, "UPDATE groups SET is_drawn = 1 WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to flag group as drawn: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check group update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.Emit(storage.ChangeEvent{Table: "group_members", GroupID: groupID, Op: storage.OpUpdate})
	s.Emit(storage.ChangeEvent{Table: "groups", GroupID: groupID, Op: storage.OpUpdate})
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
