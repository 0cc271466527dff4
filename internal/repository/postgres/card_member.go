package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
)

type CardMemberStore struct {
	q pgx.Tx
}

func (s *CardMemberStore) Create(ctx context.Context, cm *models.CardMember) error {
	query := `
		INSERT INTO card_members (card_id, board_user_id, created_on)
		VALUES ($1, $2, now())
		RETURNING id, created_on`

	if err := s.q.QueryRow(ctx, query, cm.CardID, cm.BoardMemberID).Scan(&cm.ID, &cm.CreatedOn); err != nil {
		return fmt.Errorf("insert card member: %w", err)
	}
	return nil
}

func (s *CardMemberStore) Get(ctx context.Context, cardID, memberID int64) (*models.CardMember, error) {
	query := `
		SELECT id, card_id, board_user_id, created_on
		FROM card_members
		WHERE card_id = $1 AND board_user_id = $2`

	var cm models.CardMember
	if err := s.q.QueryRow(ctx, query, cardID, memberID).Scan(&cm.ID, &cm.CardID, &cm.BoardMemberID, &cm.CreatedOn); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card member: %w", err)
	}
	return &cm, nil
}

func (s *CardMemberStore) ListByCard(ctx context.Context, cardID int64) ([]models.CardMember, error) {
	query := `
		SELECT id, card_id, board_user_id, created_on
		FROM card_members
		WHERE card_id = $1
		ORDER BY id`

	rows, err := s.q.Query(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("list card members: %w", err)
	}
	defer rows.Close()

	members := make([]models.CardMember, 0)
	for rows.Next() {
		var cm models.CardMember
		if err := rows.Scan(&cm.ID, &cm.CardID, &cm.BoardMemberID, &cm.CreatedOn); err != nil {
			return nil, fmt.Errorf("scan card member: %w", err)
		}
		members = append(members, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card members: %w", err)
	}
	return members, nil
}

func (s *CardMemberStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM card_members WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete card member: %w", err)
	}
	return nil
}
