package planner

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/endurance-planner/internal/domain"
)

// Canonicalize rebuilds content onto the seven Monday..Sunday dates of the week containing
// weekStart. Items under a canonical key stay on that date. Items under any other key
// (invalid or out-of-week dates) are redistributed in arrival order, one group per empty
// day; when no empty day is left a group joins the least loaded day.
func Canonicalize(content WeekContent, weekStart time.Time) WeekContent {
	keys := CanonicalDateKeys(weekStart)
	pos := make(map[string]int, len(keys))
	out := make(WeekContent, len(keys))
	for i, k := range keys {
		pos[k] = i
		out[i] = DayItems{Date: k}
	}

	var extras [][]string
	for _, day := range content {
		items := nonEmpty(day.Items)
		if i, ok := pos[normalizeDateKey(day.Date)]; ok {
			out[i].Items = append(out[i].Items, items...)
			continue
		}
		if len(items) > 0 {
			extras = append(extras, items)
		}
	}

	for _, group := range extras {
		target := -1
		for i := range out {
			if len(out[i].Items) == 0 {
				target = i
				break
			}
		}
		if target < 0 {
			target = leastLoadedDay(out)
		}
		out[target].Items = append(out[target].Items, group...)
	}
	return out
}

// normalizeDateKey accepts keys with a time suffix ("2025-02-24T00:00:00Z") but rejects
// impossible calendar dates such as 2025-02-29.
func normalizeDateKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) > len(DateLayout) {
		key = key[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return ""
	}
	return t.Format(DateLayout)
}

func leastLoadedDay(days WeekContent) int {
	best := 0
	for i := range days {
		if len(days[i].Items) < len(days[best].Items) {
			best = i
		}
	}
	return best
}

func nonEmpty(items []string) []string {
	var out []string
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			out = append(out, it)
		}
	}
	return out
}

// IsRestMarker reports whether a line only marks a rest day.
func IsRestMarker(p ParsedSession) bool {
	if p.Sport != domain.SportOther {
		return false
	}
	t := strings.ToLower(p.Title)
	return strings.Contains(t, "rest") || strings.Contains(t, "off day") || strings.HasPrefix(strings.TrimSpace(p.Title), "🛌")
}

// Materialize turns an accepted week into planned sessions. Only canonical dates are ever
// emitted. Duplicate (date, sport) pairs collapse onto the first occurrence's position,
// keeping the more detailed (longer) raw line.
func Materialize(content WeekContent, week domain.WeekMeta, userID, planID primitive.ObjectID) []domain.Session {
	canonical := Canonicalize(content, week.StartDate)

	type key struct {
		date  string
		sport domain.Sport
	}
	seen := make(map[key]int)
	var sessions []domain.Session

	for _, day := range canonical {
		for _, raw := range day.Items {
			raw = strings.TrimSpace(raw)
			parsed := ParseSession(raw)
			if parsed.Title == "" || IsRestMarker(parsed) {
				continue
			}

			s := newSession(parsed, raw, day.Date, userID, planID)
			k := key{day.Date, parsed.Sport}
			if i, ok := seen[k]; ok {
				if len(raw) > len(sessions[i].Raw) {
					sessions[i] = s
				}
				continue
			}
			seen[k] = len(sessions)
			sessions = append(sessions, s)
		}
	}
	return sessions
}

func newSession(p ParsedSession, raw, date string, userID, planID primitive.ObjectID) domain.Session {
	s := domain.Session{
		UserID:  userID,
		PlanID:  planID,
		Date:    date,
		Sport:   p.Sport,
		Title:   p.Title,
		Details: p.Details,
		Raw:     raw,
		Status:  domain.SessionPlanned,
	}
	if p.DurationMinutes != nil {
		intensity := domain.IntensityEasy
		if p.IsHard {
			intensity = domain.IntensityHard
		}
		s.StructuredWorkout = &domain.StructuredWorkout{DurationMinutes: *p.DurationMinutes, Intensity: intensity}
	}
	return s
}

// RaceDaySession is the terminal race entry for the final week, nil for other weeks.
func RaceDaySession(week domain.WeekMeta, profile domain.AthleteProfile, userID, planID primitive.ObjectID) *domain.Session {
	if week.RaceDay == nil {
		return nil
	}
	name := profile.RaceName
	if name == "" {
		name = string(profile.RaceFamily)
	}
	raw := "🏁 Race Day: " + name
	s := newSession(ParseSession(raw), raw, week.RaceDay.Format(DateLayout), userID, planID)
	return &s
}
