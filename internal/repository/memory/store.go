// Package memory is an in-process implementation of the repository
// interfaces. It backs the service and API tests and the STORE_DRIVER=memory
// development mode.
//
// Transactions are serialized: WithTx holds the store lock for the whole of
// fn, works on a copy of the state and swaps the copy in only when fn returns
// nil. The cascade rules of the SQL schema are reproduced by hand in the
// delete helpers below.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/repository"
)

// ErrConflict is returned where the SQL schema has a unique constraint.
var ErrConflict = errors.New("memory: unique constraint violated")

type state struct {
	seq int64

	users       map[uuid.UUID]models.User
	boards      map[int64]models.Board
	roles       map[int64]models.BoardRole
	perms       map[int64]models.BoardRolePermission
	members     map[int64]models.BoardMember
	lists       map[int64]models.BoardList
	cards       map[int64]models.Card
	cardMembers map[int64]models.CardMember
	checklists  map[int64]models.Checklist
	items       map[int64]models.ChecklistItem
	comments    map[int64]models.CardComment
	dates       map[int64]models.CardDate
	files       map[int64]models.CardFile
	activities  map[int64]models.Activity
}

func newState() *state {
	return &state{
		users:       map[uuid.UUID]models.User{},
		boards:      map[int64]models.Board{},
		roles:       map[int64]models.BoardRole{},
		perms:       map[int64]models.BoardRolePermission{},
		members:     map[int64]models.BoardMember{},
		lists:       map[int64]models.BoardList{},
		cards:       map[int64]models.Card{},
		cardMembers: map[int64]models.CardMember{},
		checklists:  map[int64]models.Checklist{},
		items:       map[int64]models.ChecklistItem{},
		comments:    map[int64]models.CardComment{},
		dates:       map[int64]models.CardDate{},
		files:       map[int64]models.CardFile{},
		activities:  map[int64]models.Activity{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies every table. Row values are copied; pointer fields inside
// rows are shared, which is safe because rows are always replaced whole.
func (s *state) clone() *state {
	return &state{
		seq:         s.seq,
		users:       cloneMap(s.users),
		boards:      cloneMap(s.boards),
		roles:       cloneMap(s.roles),
		perms:       cloneMap(s.perms),
		members:     cloneMap(s.members),
		lists:       cloneMap(s.lists),
		cards:       cloneMap(s.cards),
		cardMembers: cloneMap(s.cardMembers),
		checklists:  cloneMap(s.checklists),
		items:       cloneMap(s.items),
		comments:    cloneMap(s.comments),
		dates:       cloneMap(s.dates),
		files:       cloneMap(s.files),
		activities:  cloneMap(s.activities),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&memTx{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type memTx struct {
	st  *state
	now func() time.Time
}

func (t *memTx) Users() repository.UserRepository             { return users{t} }
func (t *memTx) Boards() repository.BoardRepository           { return boards{t} }
func (t *memTx) Roles() repository.RoleRepository             { return roles{t} }
func (t *memTx) Members() repository.MemberRepository         { return members{t} }
func (t *memTx) Lists() repository.ListRepository             { return lists{t} }
func (t *memTx) Cards() repository.CardRepository             { return cards{t} }
func (t *memTx) CardMembers() repository.CardMemberRepository { return cardMembers{t} }
func (t *memTx) Checklists() repository.ChecklistRepository   { return checklists{t} }
func (t *memTx) Comments() repository.CommentRepository       { return comments{t} }
func (t *memTx) Dates() repository.DateRepository             { return dates{t} }
func (t *memTx) Files() repository.FileRepository             { return files{t} }
func (t *memTx) Activities() repository.ActivityRepository    { return activities{t} }

// Cascades. Each helper removes the row and everything the schema declares
// ON DELETE CASCADE (or SET NULL) for it.

func (s *state) deleteBoard(id int64) {
	for lid, l := range s.lists {
		if l.BoardID == id {
			s.deleteList(lid)
		}
	}
	for aid, a := range s.activities {
		if a.BoardID == id {
			s.deleteActivity(aid)
		}
	}
	for mid, m := range s.members {
		if m.BoardID == id {
			s.deleteMember(mid)
		}
	}
	for rid, r := range s.roles {
		if r.BoardID == id {
			for pid, p := range s.perms {
				if p.BoardRoleID == rid {
					delete(s.perms, pid)
				}
			}
			delete(s.roles, rid)
		}
	}
	delete(s.boards, id)
}

func (s *state) deleteList(id int64) {
	for cid, c := range s.cards {
		if c.ListID == id {
			s.deleteCard(cid)
		}
	}
	delete(s.lists, id)
}

func (s *state) deleteCard(id int64) {
	for cmid, cm := range s.cardMembers {
		if cm.CardID == id {
			delete(s.cardMembers, cmid)
		}
	}
	for clid, cl := range s.checklists {
		if cl.CardID == id {
			s.deleteChecklist(clid)
		}
	}
	for did, d := range s.dates {
		if d.CardID == id {
			delete(s.dates, did)
		}
	}
	for fid, f := range s.files {
		if f.CardID == id {
			delete(s.files, fid)
		}
	}
	for aid, a := range s.activities {
		if a.CardID != nil && *a.CardID == id {
			s.deleteActivity(aid)
		}
	}
	delete(s.cards, id)
}

func (s *state) deleteChecklist(id int64) {
	for iid, it := range s.items {
		if it.ChecklistID == id {
			delete(s.items, iid)
		}
	}
	delete(s.checklists, id)
}

func (s *state) deleteActivity(id int64) {
	for cid, c := range s.comments {
		if c.ActivityID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.activities, id)
}

func (s *state) deleteMember(id int64) {
	for cmid, cm := range s.cardMembers {
		if cm.BoardMemberID == id {
			delete(s.cardMembers, cmid)
		}
	}
	for iid, it := range s.items {
		changed := false
		if it.MarkedCompleteBy != nil && *it.MarkedCompleteBy == id {
			it.MarkedCompleteBy = nil
			changed = true
		}
		if it.AssignedMemberID != nil && *it.AssignedMemberID == id {
			it.AssignedMemberID = nil
			changed = true
		}
		if changed {
			s.items[iid] = it
		}
	}
	for aid, a := range s.activities {
		if a.MemberID != nil && *a.MemberID == id {
			a.MemberID = nil
			s.activities[aid] = a
		}
	}
	for cid, c := range s.comments {
		if c.AuthorID != nil && *c.AuthorID == id {
			c.AuthorID = nil
			s.comments[cid] = c
		}
	}
	delete(s.members, id)
}
