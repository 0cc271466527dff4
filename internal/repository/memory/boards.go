package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
)

type users struct{ *memTx }

func (r users) Create(_ context.Context, u *models.User) error {
	for _, existing := range r.st.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if _, ok := r.st.users[u.ID]; ok {
		return ErrConflict
	}
	u.CreatedAt = r.now()
	r.st.users[u.ID] = *u
	return nil
}

func (r users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

type boards struct{ *memTx }

func (r boards) Create(_ context.Context, b *models.Board) error {
	b.ID = r.st.nextID()
	b.CreatedOn = r.now()
	r.st.boards[b.ID] = *b
	return nil
}

func (r boards) GetByID(_ context.Context, id int64) (*models.Board, error) {
	b, ok := r.st.boards[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r boards) Update(_ context.Context, b *models.Board) error {
	if _, ok := r.st.boards[b.ID]; ok {
		r.st.boards[b.ID] = *b
	}
	return nil
}

func (r boards) Delete(_ context.Context, id int64) error {
	r.st.deleteBoard(id)
	return nil
}

func (r boards) ListForUser(_ context.Context, userID uuid.UUID, archived bool) ([]models.Board, error) {
	access := map[int64]bool{}
	for _, m := range r.st.members {
		if m.UserID == userID && !m.IsDeleted {
			access[m.BoardID] = true
		}
	}

	out := make([]models.Board, 0)
	for _, b := range r.st.boards {
		if b.Archived != archived {
			continue
		}
		if b.OwnerID == userID || access[b.ID] {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedOn.Equal(out[j].CreatedOn) {
			return out[i].CreatedOn.After(out[j].CreatedOn)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type roles struct{ *memTx }

func (r roles) Create(_ context.Context, role *models.BoardRole) error {
	role.ID = r.st.nextID()
	for i := range role.Permissions {
		p := &role.Permissions[i]
		p.ID = r.st.nextID()
		p.BoardRoleID = role.ID
		r.st.perms[p.ID] = *p
	}
	stored := *role
	stored.Permissions = nil
	r.st.roles[role.ID] = stored
	return nil
}

func (r roles) withPermissions(role models.BoardRole) models.BoardRole {
	role.Permissions = make([]models.BoardRolePermission, 0)
	for _, p := range r.st.perms {
		if p.BoardRoleID == role.ID {
			role.Permissions = append(role.Permissions, p)
		}
	}
	sort.Slice(role.Permissions, func(i, j int) bool { return role.Permissions[i].ID < role.Permissions[j].ID })
	role.IndexPermissions()
	return role
}

func (r roles) GetByID(_ context.Context, id int64) (*models.BoardRole, error) {
	role, ok := r.st.roles[id]
	if !ok {
		return nil, nil
	}
	role = r.withPermissions(role)
	return &role, nil
}

func (r roles) ListByBoard(_ context.Context, boardID int64) ([]models.BoardRole, error) {
	return r.list(func(role models.BoardRole) bool { return role.BoardID == boardID }), nil
}

func (r roles) ListAll(_ context.Context) ([]models.BoardRole, error) {
	return r.list(func(models.BoardRole) bool { return true }), nil
}

func (r roles) list(keep func(models.BoardRole) bool) []models.BoardRole {
	out := make([]models.BoardRole, 0)
	for _, role := range r.st.roles {
		if keep(role) {
			out = append(out, r.withPermissions(role))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r roles) AddPermission(_ context.Context, roleID int64, name permission.Name, allow bool) (bool, error) {
	for _, p := range r.st.perms {
		if p.BoardRoleID == roleID && p.Name == name {
			return false, nil
		}
	}
	p := models.BoardRolePermission{ID: r.st.nextID(), BoardRoleID: roleID, Name: name, Allow: allow}
	r.st.perms[p.ID] = p
	return true, nil
}

func (r roles) DeletePermissionsNotIn(_ context.Context, keep []permission.Name) (int64, error) {
	allowed := make(map[permission.Name]bool, len(keep))
	for _, n := range keep {
		allowed[n] = true
	}
	var n int64
	for id, p := range r.st.perms {
		if !allowed[p.Name] {
			delete(r.st.perms, id)
			n++
		}
	}
	return n, nil
}

type members struct{ *memTx }

func (r members) Create(_ context.Context, m *models.BoardMember) error {
	if !m.IsDeleted {
		for _, existing := range r.st.members {
			if existing.BoardID == m.BoardID && existing.UserID == m.UserID && !existing.IsDeleted {
				return ErrConflict
			}
		}
	}
	m.ID = r.st.nextID()
	m.CreatedOn = r.now()
	r.st.members[m.ID] = *m
	return nil
}

func (r members) GetByID(_ context.Context, id int64) (*models.BoardMember, error) {
	m, ok := r.st.members[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r members) GetByBoardAndUser(_ context.Context, boardID int64, userID uuid.UUID) (*models.BoardMember, error) {
	var best *models.BoardMember
	for _, m := range r.st.members {
		if m.BoardID != boardID || m.UserID != userID {
			continue
		}
		m := m
		switch {
		case best == nil:
			best = &m
		case best.IsDeleted && !m.IsDeleted:
			best = &m
		case best.IsDeleted == m.IsDeleted && m.ID > best.ID:
			best = &m
		}
	}
	return best, nil
}

func (r members) ListByBoard(_ context.Context, boardID int64) ([]models.BoardMember, error) {
	out := make([]models.BoardMember, 0)
	for _, m := range r.st.members {
		if m.BoardID == boardID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r members) Update(_ context.Context, m *models.BoardMember) error {
	if !m.IsDeleted {
		for _, existing := range r.st.members {
			if existing.ID != m.ID && existing.BoardID == m.BoardID && existing.UserID == m.UserID && !existing.IsDeleted {
				return ErrConflict
			}
		}
	}
	if _, ok := r.st.members[m.ID]; ok {
		r.st.members[m.ID] = *m
	}
	return nil
}

func (r members) Delete(_ context.Context, id int64) error {
	r.st.deleteMember(id)
	return nil
}
