package memory

import (
	"cmp"
	"context"
	"sort"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/repository"
)

type activities struct{ *memTx }

func (r activities) Create(_ context.Context, a *models.Activity) error {
	a.ID = r.st.nextID()
	if a.ActivityOn.IsZero() {
		a.ActivityOn = r.now()
	}
	stored := *a
	stored.Comment = nil
	r.st.activities[a.ID] = stored
	return nil
}

func (r activities) GetByID(_ context.Context, id int64) (*models.Activity, error) {
	a, ok := r.st.activities[id]
	if !ok {
		return nil, nil
	}
	a.Comment = r.commentFor(a.ID)
	return &a, nil
}

func (r activities) commentFor(activityID int64) *models.CardComment {
	for _, c := range r.st.comments {
		if c.ActivityID == activityID {
			return &c
		}
	}
	return nil
}

func (r activities) Delete(_ context.Context, id int64) error {
	r.st.deleteActivity(id)
	return nil
}

func ptrCmp(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

func compareBy(key string, a, b models.Activity) int {
	switch key {
	case "id":
		return cmp.Compare(a.ID, b.ID)
	case "event":
		return cmp.Compare(a.Event, b.Event)
	case "entity_id":
		return ptrCmp(a.EntityID, b.EntityID)
	case "board_user_id":
		return ptrCmp(a.MemberID, b.MemberID)
	case "card_id":
		return ptrCmp(a.CardID, b.CardID)
	default:
		return a.ActivityOn.Compare(b.ActivityOn)
	}
}

func (r activities) Query(_ context.Context, f repository.ActivityFilter) ([]models.Activity, int, error) {
	matched := make([]models.Activity, 0)
	for _, a := range r.st.activities {
		if a.BoardID != f.BoardID {
			continue
		}
		if f.CardID != nil && (a.CardID == nil || *a.CardID != *f.CardID) {
			continue
		}
		if f.CommentsOnly && a.Event != models.EventCardComment {
			continue
		}
		if f.MemberID != nil && (a.MemberID == nil || *a.MemberID != *f.MemberID) {
			continue
		}
		if f.From != nil && a.ActivityOn.Before(*f.From) {
			continue
		}
		if f.To != nil {
			if f.From != nil && a.ActivityOn.After(*f.To) {
				continue
			}
			if f.From == nil && !a.ActivityOn.Before(*f.To) {
				continue
			}
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		c := compareBy(f.SortBy, matched[i], matched[j])
		if c == 0 {
			c = cmp.Compare(matched[i].ID, matched[j].ID)
		}
		if f.Desc {
			return c > 0
		}
		return c < 0
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}

	page := make([]models.Activity, 0, end-start)
	for _, a := range matched[start:end] {
		a.Comment = r.commentFor(a.ID)
		page = append(page, a)
	}
	return page, total, nil
}
