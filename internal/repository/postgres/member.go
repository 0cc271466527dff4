package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
)

type MemberStore struct {
	q pgx.Tx
}

const memberColumns = `id, board_id, user_id, board_role_id, is_owner, is_deleted, created_on`

func scanMember(row pgx.Row, m *models.BoardMember) error {
	return row.Scan(&m.ID, &m.BoardID, &m.UserID, &m.RoleID, &m.IsOwner, &m.IsDeleted, &m.CreatedOn)
}

func (s *MemberStore) Create(ctx context.Context, m *models.BoardMember) error {
	query := `
		INSERT INTO board_users (board_id, user_id, board_role_id, is_owner, is_deleted, created_on)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, created_on`

	err := s.q.QueryRow(ctx, query, m.BoardID, m.UserID, m.RoleID, m.IsOwner, m.IsDeleted).Scan(&m.ID, &m.CreatedOn)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *MemberStore) GetByID(ctx context.Context, id int64) (*models.BoardMember, error) {
	query := `SELECT ` + memberColumns + ` FROM board_users WHERE id = $1`

	var m models.BoardMember
	if err := scanMember(s.q.QueryRow(ctx, query, id), &m); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

// GetByBoardAndUser is on the hot path: every command resolves its actor
// through it.
func (s *MemberStore) GetByBoardAndUser(ctx context.Context, boardID int64, userID uuid.UUID) (*models.BoardMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM board_users
		WHERE board_id = $1 AND user_id = $2
		ORDER BY is_deleted ASC, id DESC
		LIMIT 1`

	var m models.BoardMember
	if err := scanMember(s.q.QueryRow(ctx, query, boardID, userID), &m); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member by user: %w", err)
	}
	return &m, nil
}

func (s *MemberStore) ListByBoard(ctx context.Context, boardID int64) ([]models.BoardMember, error) {
	query := `SELECT ` + memberColumns + ` FROM board_users WHERE board_id = $1 ORDER BY id`

	rows, err := s.q.Query(ctx, query, boardID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.BoardMember, 0)
	for rows.Next() {
		var m models.BoardMember
		if err := scanMember(rows, &m); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func (s *MemberStore) Update(ctx context.Context, m *models.BoardMember) error {
	query := `
		UPDATE board_users
		SET board_role_id = $2, is_owner = $3, is_deleted = $4
		WHERE id = $1`

	if _, err := s.q.Exec(ctx, query, m.ID, m.RoleID, m.IsOwner, m.IsDeleted); err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}

func (s *MemberStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM board_users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}
