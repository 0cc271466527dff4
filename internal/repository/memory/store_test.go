package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBoard(t *testing.T, s *Store) (board models.Board, list models.BoardList, card models.Card) {
	t.Helper()
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		board = models.Board{OwnerID: uuid.New(), Title: "B"}
		if err := tx.Boards().Create(ctx, &board); err != nil {
			return err
		}
		list = models.BoardList{BoardID: board.ID, Title: "L", Position: 1, WIPLimit: models.Unlimited}
		if err := tx.Lists().Create(ctx, &list); err != nil {
			return err
		}
		card = models.Card{BoardID: board.ID, ListID: list.ID, Title: "C", Position: 1}
		return tx.Cards().Create(ctx, &card)
	})
	require.NoError(t, err)
	return board, list, card
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	board, _, _ := seedBoard(t, s)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx repository.Tx) error {
		b, _ := tx.Boards().GetByID(ctx, board.ID)
		b.Title = "changed"
		require.NoError(t, tx.Boards().Update(ctx, b))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_ = s.WithTx(ctx, func(tx repository.Tx) error {
		b, _ := tx.Boards().GetByID(ctx, board.ID)
		assert.Equal(t, "B", b.Title)
		return nil
	})
}

func TestDeleteCardCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	board, _, card := seedBoard(t, s)

	var commentID int64
	require.NoError(t, s.WithTx(ctx, func(tx repository.Tx) error {
		a := models.Activity{BoardID: board.ID, CardID: &card.ID, Event: models.EventCardComment, ActivityOn: time.Now()}
		if err := tx.Activities().Create(ctx, &a); err != nil {
			return err
		}
		c := models.CardComment{BoardID: board.ID, ActivityID: a.ID, Comment: "hi"}
		if err := tx.Comments().Create(ctx, &c); err != nil {
			return err
		}
		commentID = c.ID
		return tx.Files().Create(ctx, &models.CardFile{BoardID: board.ID, CardID: card.ID, FileName: "f.txt"})
	}))

	require.NoError(t, s.WithTx(ctx, func(tx repository.Tx) error {
		return tx.Cards().Delete(ctx, card.ID)
	}))

	_ = s.WithTx(ctx, func(tx repository.Tx) error {
		c, _ := tx.Comments().GetByID(ctx, commentID)
		assert.Nil(t, c)
		files, _ := tx.Files().ListByCard(ctx, card.ID)
		assert.Empty(t, files)
		items, total, _ := tx.Activities().Query(ctx, repository.ActivityFilter{BoardID: board.ID, Limit: 10})
		assert.Empty(t, items)
		assert.Zero(t, total)
		return nil
	})
}

func TestArchiveAndRevertByList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	board, list, card := seedBoard(t, s)

	var archived models.Card
	require.NoError(t, s.WithTx(ctx, func(tx repository.Tx) error {
		now := time.Now()
		archived = models.Card{BoardID: board.ID, ListID: list.ID, Title: "old", Archived: true, ArchivedOn: &now}
		if err := tx.Cards().Create(ctx, &archived); err != nil {
			return err
		}
		n, err := tx.Cards().ArchiveByList(ctx, list.ID, now)
		assert.Equal(t, int64(1), n)
		return err
	}))

	_ = s.WithTx(ctx, func(tx repository.Tx) error {
		c, _ := tx.Cards().GetByID(ctx, card.ID)
		assert.True(t, c.ArchivedByList)
		assert.NotNil(t, c.ArchivedOn)
		active, _ := tx.Cards().CountActive(ctx, list.ID)
		assert.Zero(t, active)

		n, _ := tx.Cards().RevertByList(ctx, list.ID)
		assert.Equal(t, int64(1), n)

		c, _ = tx.Cards().GetByID(ctx, card.ID)
		assert.False(t, c.ArchivedByList)
		assert.Nil(t, c.ArchivedOn)

		old, _ := tx.Cards().GetByID(ctx, archived.ID)
		assert.True(t, old.Archived)
		assert.False(t, old.ArchivedByList)
		return nil
	})
}

func TestMemberUniqueWhileActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	user := uuid.New()

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.Members().Create(ctx, &models.BoardMember{BoardID: 1, UserID: user, RoleID: 1}); err != nil {
			return err
		}
		return tx.Members().Create(ctx, &models.BoardMember{BoardID: 1, UserID: user, RoleID: 1})
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestActivityQueryPaginationAndSort(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	board, _, _ := seedBoard(t, s)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.WithTx(ctx, func(tx repository.Tx) error {
		for i := 0; i < 5; i++ {
			a := models.Activity{BoardID: board.ID, Event: models.EventListCreate, ActivityOn: base.Add(time.Duration(i) * time.Hour)}
			if err := tx.Activities().Create(ctx, &a); err != nil {
				return err
			}
		}
		return nil
	}))

	_ = s.WithTx(ctx, func(tx repository.Tx) error {
		items, total, err := tx.Activities().Query(ctx, repository.ActivityFilter{
			BoardID: board.ID, SortBy: "activity_on", Desc: true, Limit: 2, Offset: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, items, 2)
		assert.Equal(t, base.Add(2*time.Hour), items[0].ActivityOn)
		assert.Equal(t, base.Add(1*time.Hour), items[1].ActivityOn)

		to := base.Add(2 * time.Hour)
		_, total, _ = tx.Activities().Query(ctx, repository.ActivityFilter{BoardID: board.ID, To: &to, Limit: 10})
		assert.Equal(t, 2, total)
		return nil
	})
}
