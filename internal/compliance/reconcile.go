package compliance

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/endurance-planner/internal/domain"
)

type StatusChange struct {
	SessionID primitive.ObjectID
	Date      string
	Status    domain.SessionStatus
}

// Resolve decides final statuses for planned sessions dated before today: done when an
// activity matches, missed otherwise. Sessions already marked done claim their activity first.
func (e *Engine) Resolve(sessions []domain.Session, activities []domain.CompletedActivity, today string) []StatusChange {
	ordered := append([]domain.Session(nil), sessions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Status == domain.SessionDone && ordered[j].Status != domain.SessionDone
	})

	m := newMatcher(activities)
	var changes []StatusChange
	for _, s := range ordered {
		switch {
		case s.Status == domain.SessionDone:
			m.match(s)
		case s.Status != domain.SessionPlanned || s.Date >= today:
		default:
			status := domain.SessionMissed
			if _, ok := m.match(s); ok {
				status = domain.SessionDone
			}
			changes = append(changes, StatusChange{SessionID: s.ID, Date: s.Date, Status: status})
		}
	}
	return changes
}
