package compliance

import (
	"strings"

	"alcyxob/endurance-planner/internal/domain"
)

// matcher pairs planned sessions with completed activities. Each activity satisfies at most
// one planned session; sessions already marked done count as completed without an activity.
type matcher struct {
	byDate map[string][]*candidate
}

type candidate struct {
	activity domain.CompletedActivity
	used     bool
}

func newMatcher(activities []domain.CompletedActivity) *matcher {
	m := &matcher{byDate: make(map[string][]*candidate)}
	for _, a := range activities {
		m.byDate[a.Date] = append(m.byDate[a.Date], &candidate{activity: a})
	}
	return m
}

// completed reports whether s counts as done, consuming the activity it matched.
func (m *matcher) completed(s domain.Session) bool {
	switch s.Status {
	case domain.SessionDone:
		return true
	case domain.SessionSkipped:
		return false
	}
	_, ok := m.match(s)
	return ok
}

func (m *matcher) match(s domain.Session) (domain.CompletedActivity, bool) {
	cands := m.byDate[s.Date]
	for _, c := range cands {
		if !c.used && sportMatches(s.Sport, c.activity.Sport) {
			c.used = true
			return c.activity, true
		}
	}
	title := normalizeTitle(s.Title)
	for _, c := range cands {
		if !c.used && title != "" && normalizeTitle(c.activity.Title) == title {
			c.used = true
			return c.activity, true
		}
	}
	return domain.CompletedActivity{}, false
}

func sportMatches(planned, actual domain.Sport) bool {
	p := domain.Sport(strings.ToLower(string(planned)))
	a := domain.Sport(strings.ToLower(string(actual)))
	if p == a {
		return true
	}
	return p == domain.SportBrick && (a == domain.SportBike || a == domain.SportRun)
}

func normalizeTitle(t string) string {
	return strings.Join(strings.Fields(strings.ToLower(t)), " ")
}
