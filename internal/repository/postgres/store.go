// Package postgres implements the repository interfaces on pgx.
//
// Every store in this package wraps a pgx.Tx, never the pool: the only way to
// reach one is through Store.WithTx, so every read and write a command makes
// shares its transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/kanban/internal/repository"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back on an error or a panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Rollback after a failed fn is best effort; the original
			// error is the one the caller needs.
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err := fn(&txRepos{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

type txRepos struct {
	tx pgx.Tx
}

func (t *txRepos) Users() repository.UserRepository             { return &UserStore{q: t.tx} }
func (t *txRepos) Boards() repository.BoardRepository           { return &BoardStore{q: t.tx} }
func (t *txRepos) Roles() repository.RoleRepository             { return &RoleStore{q: t.tx} }
func (t *txRepos) Members() repository.MemberRepository         { return &MemberStore{q: t.tx} }
func (t *txRepos) Lists() repository.ListRepository             { return &ListStore{q: t.tx} }
func (t *txRepos) Cards() repository.CardRepository             { return &CardStore{q: t.tx} }
func (t *txRepos) CardMembers() repository.CardMemberRepository { return &CardMemberStore{q: t.tx} }
func (t *txRepos) Checklists() repository.ChecklistRepository   { return &ChecklistStore{q: t.tx} }
func (t *txRepos) Comments() repository.CommentRepository       { return &CommentStore{q: t.tx} }
func (t *txRepos) Dates() repository.DateRepository             { return &DateStore{q: t.tx} }
func (t *txRepos) Files() repository.FileRepository             { return &FileStore{q: t.tx} }
func (t *txRepos) Activities() repository.ActivityRepository    { return &ActivityStore{q: t.tx} }

// notFound turns pgx.ErrNoRows into the nil, nil convention.
func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// maxPosition runs a COALESCE(MAX(position), 0) query.
func maxPosition(ctx context.Context, q pgx.Tx, query string, parentID int64) (int, error) {
	var pos int
	if err := q.QueryRow(ctx, query, parentID).Scan(&pos); err != nil {
		return 0, err
	}
	return pos, nil
}
