package memory

import (
	"context"
	"sort"
	"time"

	"github.com/lalith-99/kanban/internal/models"
)

type lists struct{ *memTx }

func (r lists) Create(_ context.Context, l *models.BoardList) error {
	l.ID = r.st.nextID()
	l.CreatedOn = r.now()
	r.st.lists[l.ID] = *l
	return nil
}

func (r lists) GetByID(_ context.Context, id int64) (*models.BoardList, error) {
	l, ok := r.st.lists[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r lists) ListByBoard(_ context.Context, boardID int64, includeArchived bool) ([]models.BoardList, error) {
	out := make([]models.BoardList, 0)
	for _, l := range r.st.lists {
		if l.BoardID == boardID && (includeArchived || !l.Archived) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r lists) Update(_ context.Context, l *models.BoardList) error {
	if _, ok := r.st.lists[l.ID]; ok {
		r.st.lists[l.ID] = *l
	}
	return nil
}

func (r lists) Delete(_ context.Context, id int64) error {
	r.st.deleteList(id)
	return nil
}

func (r lists) MaxPosition(_ context.Context, boardID int64) (int, error) {
	max := 0
	for _, l := range r.st.lists {
		if l.BoardID == boardID && l.Position > max {
			max = l.Position
		}
	}
	return max, nil
}

func (r lists) SetPosition(_ context.Context, id int64, position int) error {
	if l, ok := r.st.lists[id]; ok {
		l.Position = position
		r.st.lists[id] = l
	}
	return nil
}

type cards struct{ *memTx }

func (r cards) Create(_ context.Context, c *models.Card) error {
	c.ID = r.st.nextID()
	c.CreatedOn = r.now()
	r.st.cards[c.ID] = *c
	return nil
}

func (r cards) GetByID(_ context.Context, id int64) (*models.Card, error) {
	c, ok := r.st.cards[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r cards) ListByList(_ context.Context, listID int64, includeArchived bool) ([]models.Card, error) {
	out := make([]models.Card, 0)
	for _, c := range r.st.cards {
		if c.ListID != listID {
			continue
		}
		if !includeArchived && (c.Archived || c.ArchivedByList) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r cards) Update(_ context.Context, c *models.Card) error {
	if _, ok := r.st.cards[c.ID]; ok {
		r.st.cards[c.ID] = *c
	}
	return nil
}

func (r cards) Delete(_ context.Context, id int64) error {
	r.st.deleteCard(id)
	return nil
}

func (r cards) MaxPosition(_ context.Context, listID int64) (int, error) {
	max := 0
	for _, c := range r.st.cards {
		if c.ListID == listID && c.Position > max {
			max = c.Position
		}
	}
	return max, nil
}

func (r cards) SetPosition(_ context.Context, id int64, position int) error {
	if c, ok := r.st.cards[id]; ok {
		c.Position = position
		r.st.cards[id] = c
	}
	return nil
}

func (r cards) CountActive(_ context.Context, listID int64) (int, error) {
	n := 0
	for _, c := range r.st.cards {
		if c.ListID == listID && !c.Archived && !c.ArchivedByList {
			n++
		}
	}
	return n, nil
}

func (r cards) CountArchivedByList(_ context.Context, listID int64) (int, error) {
	n := 0
	for _, c := range r.st.cards {
		if c.ListID == listID && !c.Archived && c.ArchivedByList {
			n++
		}
	}
	return n, nil
}

func (r cards) ArchiveByList(_ context.Context, listID int64, at time.Time) (int64, error) {
	var n int64
	for id, c := range r.st.cards {
		if c.ListID == listID && !c.Archived && !c.ArchivedByList {
			at := at
			c.ArchivedByList = true
			c.ArchivedOn = &at
			r.st.cards[id] = c
			n++
		}
	}
	return n, nil
}

func (r cards) RevertByList(_ context.Context, listID int64) (int64, error) {
	var n int64
	for id, c := range r.st.cards {
		if c.ListID == listID && !c.Archived && c.ArchivedByList {
			c.ArchivedByList = false
			c.ArchivedOn = nil
			r.st.cards[id] = c
			n++
		}
	}
	return n, nil
}

type cardMembers struct{ *memTx }

func (r cardMembers) Create(_ context.Context, cm *models.CardMember) error {
	for _, existing := range r.st.cardMembers {
		if existing.CardID == cm.CardID && existing.BoardMemberID == cm.BoardMemberID {
			return ErrConflict
		}
	}
	cm.ID = r.st.nextID()
	cm.CreatedOn = r.now()
	r.st.cardMembers[cm.ID] = *cm
	return nil
}

func (r cardMembers) Get(_ context.Context, cardID, memberID int64) (*models.CardMember, error) {
	for _, cm := range r.st.cardMembers {
		if cm.CardID == cardID && cm.BoardMemberID == memberID {
			return &cm, nil
		}
	}
	return nil, nil
}

func (r cardMembers) ListByCard(_ context.Context, cardID int64) ([]models.CardMember, error) {
	out := make([]models.CardMember, 0)
	for _, cm := range r.st.cardMembers {
		if cm.CardID == cardID {
			out = append(out, cm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r cardMembers) Delete(_ context.Context, id int64) error {
	delete(r.st.cardMembers, id)
	return nil
}

type checklists struct{ *memTx }

func (r checklists) Create(_ context.Context, c *models.Checklist) error {
	c.ID = r.st.nextID()
	c.CreatedOn = r.now()
	stored := *c
	stored.Items = nil
	r.st.checklists[c.ID] = stored
	return nil
}

func (r checklists) GetByID(_ context.Context, id int64) (*models.Checklist, error) {
	c, ok := r.st.checklists[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r checklists) ListByCard(ctx context.Context, cardID int64) ([]models.Checklist, error) {
	out := make([]models.Checklist, 0)
	for _, c := range r.st.checklists {
		if c.CardID == cardID {
			items, _ := r.ListItems(ctx, c.ID)
			c.Items = items
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r checklists) Update(_ context.Context, c *models.Checklist) error {
	if existing, ok := r.st.checklists[c.ID]; ok {
		existing.Title = c.Title
		r.st.checklists[c.ID] = existing
	}
	return nil
}

func (r checklists) Delete(_ context.Context, id int64) error {
	r.st.deleteChecklist(id)
	return nil
}

func (r checklists) CreateItem(_ context.Context, it *models.ChecklistItem) error {
	it.ID = r.st.nextID()
	r.st.items[it.ID] = *it
	return nil
}

func (r checklists) GetItem(_ context.Context, id int64) (*models.ChecklistItem, error) {
	it, ok := r.st.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r checklists) ListItems(_ context.Context, checklistID int64) ([]models.ChecklistItem, error) {
	out := make([]models.ChecklistItem, 0)
	for _, it := range r.st.items {
		if it.ChecklistID == checklistID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r checklists) UpdateItem(_ context.Context, it *models.ChecklistItem) error {
	if _, ok := r.st.items[it.ID]; ok {
		r.st.items[it.ID] = *it
	}
	return nil
}

func (r checklists) DeleteItem(_ context.Context, id int64) error {
	delete(r.st.items, id)
	return nil
}

func (r checklists) MaxItemPosition(_ context.Context, checklistID int64) (int, error) {
	max := 0
	for _, it := range r.st.items {
		if it.ChecklistID == checklistID && it.Position > max {
			max = it.Position
		}
	}
	return max, nil
}

func (r checklists) SetItemPosition(_ context.Context, id int64, position int) error {
	if it, ok := r.st.items[id]; ok {
		it.Position = position
		r.st.items[id] = it
	}
	return nil
}

type comments struct{ *memTx }

func (r comments) Create(_ context.Context, c *models.CardComment) error {
	if _, ok := r.st.activities[c.ActivityID]; !ok {
		return ErrConflict
	}
	c.ID = r.st.nextID()
	c.CreatedOn = r.now()
	r.st.comments[c.ID] = *c
	return nil
}

func (r comments) GetByID(_ context.Context, id int64) (*models.CardComment, error) {
	c, ok := r.st.comments[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r comments) Update(_ context.Context, c *models.CardComment) error {
	if existing, ok := r.st.comments[c.ID]; ok {
		existing.Comment = c.Comment
		existing.UpdatedOn = c.UpdatedOn
		r.st.comments[c.ID] = existing
	}
	return nil
}

type dates struct{ *memTx }

func (r dates) Create(_ context.Context, d *models.CardDate) error {
	d.ID = r.st.nextID()
	d.CreatedOn = r.now()
	r.st.dates[d.ID] = *d
	return nil
}

func (r dates) GetByID(_ context.Context, id int64) (*models.CardDate, error) {
	d, ok := r.st.dates[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r dates) ListByCard(_ context.Context, cardID int64) ([]models.CardDate, error) {
	out := make([]models.CardDate, 0)
	for _, d := range r.st.dates {
		if d.CardID == cardID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DtTo.Equal(out[j].DtTo) {
			return out[i].DtTo.Before(out[j].DtTo)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r dates) Update(_ context.Context, d *models.CardDate) error {
	if _, ok := r.st.dates[d.ID]; ok {
		r.st.dates[d.ID] = *d
	}
	return nil
}

func (r dates) Delete(_ context.Context, id int64) error {
	delete(r.st.dates, id)
	return nil
}

type files struct{ *memTx }

func (r files) Create(_ context.Context, f *models.CardFile) error {
	f.ID = r.st.nextID()
	f.CreatedOn = r.now()
	r.st.files[f.ID] = *f
	return nil
}

func (r files) GetByID(_ context.Context, id int64) (*models.CardFile, error) {
	f, ok := r.st.files[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (r files) ListByCard(_ context.Context, cardID int64) ([]models.CardFile, error) {
	return r.list(func(f models.CardFile) bool { return f.CardID == cardID }), nil
}

func (r files) ListByList(_ context.Context, listID int64) ([]models.CardFile, error) {
	return r.list(func(f models.CardFile) bool {
		c, ok := r.st.cards[f.CardID]
		return ok && c.ListID == listID
	}), nil
}

func (r files) list(keep func(models.CardFile) bool) []models.CardFile {
	out := make([]models.CardFile, 0)
	for _, f := range r.st.files {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r files) Delete(_ context.Context, id int64) error {
	delete(r.st.files, id)
	return nil
}
