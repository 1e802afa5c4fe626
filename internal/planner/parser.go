package planner

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"alcyxob/endurance-planner/internal/domain"
)

// ParsedSession is the structured reading of one free-form session line.
type ParsedSession struct {
	Sport           domain.Sport
	Title           string
	Details         string // empty when the line has no detail segment
	IsHard          bool
	DurationMinutes *int // nil when no duration could be extracted
}

// Minutes returns the parsed duration or zero.
func (p ParsedSession) Minutes() int {
	if p.DurationMinutes == nil {
		return 0
	}
	return *p.DurationMinutes
}

// String reassembles the line; ParseSession(p.String()) yields p again.
func (p ParsedSession) String() string {
	if p.Details == "" {
		return p.Title
	}
	return p.Title + detailSeparator + p.Details
}

const detailSeparator = " — "

var titleSeparators = []string{" — ", " – ", " - ", ": "}

const titleTrimSet = " -–—:"

// ParseSession extracts sport, title, details, hardness and duration from a raw session line.
// A duration in the title is the session total; without one, the durations in the details are summed.
func ParseSession(raw string) ParsedSession {
	s := strings.TrimSpace(raw)
	title, details := splitTitle(s)
	if title == "" && details != "" {
		return ParseSession(details)
	}

	p := ParsedSession{
		Title:   title,
		Details: details,
		Sport:   detectSport(title, details),
		IsHard:  isHard(title + " " + details),
	}
	if m, ok := extractDuration(title); ok {
		p.DurationMinutes = &m
	} else if m, ok := sumDurations(details); ok {
		p.DurationMinutes = &m
	}
	return p
}

func splitTitle(s string) (string, string) {
	idx, sepLen := -1, 0
	for _, sep := range titleSeparators {
		if i := strings.Index(s, sep); i >= 0 && (idx < 0 || i < idx) {
			idx, sepLen = i, len(sep)
		}
	}
	if idx < 0 {
		return cleanTitle(s), ""
	}
	return cleanTitle(s[:idx]), strings.TrimSpace(s[idx+sepLen:])
}

func cleanTitle(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), titleTrimSet))
}

var emojiSports = []struct {
	emoji string
	sport domain.Sport
}{
	{"🧱", domain.SportBrick},
	{"🔁", domain.SportBrick},
	{"🏊", domain.SportSwim},
	{"🚴", domain.SportBike},
	{"🚲", domain.SportBike},
	{"💪", domain.SportStrength},
	{"🏋", domain.SportStrength},
	{"🏃", domain.SportRun},
	{"👟", domain.SportRun},
	{"🧘", domain.SportOther},
	{"🛌", domain.SportOther},
	{"🏁", domain.SportOther},
}

var sportKeywords = []struct {
	sport    domain.Sport
	keywords []string
}{
	{domain.SportBrick, []string{"brick", "bike-run", "bike/run", "bike + run", "bike+run", "off the bike", "off-the-bike"}},
	{domain.SportSwim, []string{"swim", "pool", "open water"}},
	{domain.SportBike, []string{"bike", "ride", "cycling", "cycle", "spin", "turbo"}},
	{domain.SportStrength, []string{"strength", "gym", "weights", "core"}},
	{domain.SportRun, []string{"run", "jog", "strides", "fartlek", "tempo", "threshold", "interval", "track"}},
	{domain.SportOther, []string{"rest", "off day", "mobility", "yoga", "race day"}},
}

// keywordPattern matches any keyword at the start of a word, so "ride" does not fire inside "strides".
func keywordPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)`)
}

var sportPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(sportKeywords))
	for i, sk := range sportKeywords {
		out[i] = keywordPattern(sk.keywords)
	}
	return out
}()

// detectSport gives a leading emoji priority over keywords; keywords are checked in the title first.
func detectSport(title, details string) domain.Sport {
	if sport, ok := leadingEmojiSport(title); ok {
		return sport
	}
	for _, text := range []string{title, details} {
		for i, re := range sportPatterns {
			if re.MatchString(text) {
				return sportKeywords[i].sport
			}
		}
	}
	return domain.SportOther
}

func leadingEmojiSport(title string) (domain.Sport, bool) {
	head := strings.TrimLeftFunc(title, unicode.IsSpace)
	for _, es := range emojiSports {
		if strings.HasPrefix(head, es.emoji) {
			return es.sport, true
		}
	}
	return "", false
}

var hardKeywords = []string{
	"tempo", "threshold", "interval", "vo2", "hill", "race pace", "race-pace",
	"fartlek", "repeats", "track",
}

var hardPattern = keywordPattern(hardKeywords)

func isHard(text string) bool {
	return hardPattern.MatchString(text)
}

var (
	reMinuteRange = regexp.MustCompile(`(?i)(\d+)\s*(?:-|–|to)\s*(\d+)\s*(?:minutes|minute|mins|min|')`)
	reHourMinute  = regexp.MustCompile(`(?i)(\d+)\s*(?:hours|hour|hrs|hr|h)\s*(\d{1,2})(\s*(?:minutes|minute|mins|min|'))?`)
	reHourRange   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)\s*(?:hours|hour|hrs|hr|h)\b`)
	reHours       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours|hour|hrs|hr|h)\b`)
	reMinutes     = regexp.MustCompile(`(?i)(\d+)\s*(?:minutes|minute|mins|min)\b|(\d+)'`)
	reDistance    = regexp.MustCompile(`(?i)^\s*(?:km|k|mi|miles|m|meters|metres)\b`)
)

type durationMatch struct {
	start, end int
	minutes    int
}

// reRepeat catches a repetition count right before a duration, as in "6x3 min".
var reRepeat = regexp.MustCompile(`(?i)(\d+)\s*[x×]\s*$`)

// extractDuration reads the earliest duration expression in s. Ranges resolve to their upper bound.
// A bare "m" is read as meters, never minutes.
func extractDuration(s string) (int, bool) {
	var best *durationMatch
	for _, m := range durationMatches(s) {
		if best == nil || m.start < best.start || (m.start == best.start && m.end > best.end) {
			best = &m
		}
	}
	if best == nil {
		return 0, false
	}
	return best.minutes, true
}

// sumDurations adds up every non-overlapping duration in s, so a details segment such as
// "10 min warm-up, 20 min tempo, 10 min cool-down" counts 40. "6x3 min" counts 18.
func sumDurations(s string) (int, bool) {
	matches := durationMatches(s)
	if len(matches) == 0 {
		return 0, false
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	total, end := 0, -1
	for _, m := range matches {
		if m.start < end {
			continue
		}
		minutes := m.minutes
		if rep := reRepeat.FindStringSubmatch(s[:m.start]); rep != nil {
			if n, err := strconv.Atoi(rep[1]); err == nil && n > 0 {
				minutes *= n
			}
		}
		total += minutes
		end = m.end
	}
	return total, true
}

func durationMatches(s string) []durationMatch {
	if s == "" {
		return nil
	}
	var out []durationMatch
	add := func(m durationMatch) {
		if m.minutes > 0 {
			out = append(out, m)
		}
	}

	for _, loc := range reMinuteRange.FindAllStringSubmatchIndex(s, -1) {
		hi, _ := strconv.Atoi(s[loc[4]:loc[5]])
		add(durationMatch{loc[0], loc[1], hi})
	}
	for _, loc := range reHourMinute.FindAllStringSubmatchIndex(s, -1) {
		// "2 hours 10 km" is a duration followed by a distance, not 2h10.
		if loc[6] < 0 && (reDistance.MatchString(s[loc[1]:]) || nextIsAlnum(s, loc[1])) {
			continue
		}
		h, _ := strconv.Atoi(s[loc[2]:loc[3]])
		m, _ := strconv.Atoi(s[loc[4]:loc[5]])
		if m >= 60 {
			continue
		}
		add(durationMatch{loc[0], loc[1], h*60 + m})
	}
	for _, loc := range reHourRange.FindAllStringSubmatchIndex(s, -1) {
		hi, _ := strconv.ParseFloat(s[loc[4]:loc[5]], 64)
		add(durationMatch{loc[0], loc[1], int(math.Round(hi * 60))})
	}
	for _, loc := range reHours.FindAllStringSubmatchIndex(s, -1) {
		h, _ := strconv.ParseFloat(s[loc[2]:loc[3]], 64)
		add(durationMatch{loc[0], loc[1], int(math.Round(h * 60))})
	}
	for _, loc := range reMinutes.FindAllStringSubmatchIndex(s, -1) {
		g := 2
		if loc[2] < 0 {
			g = 4
		}
		m, _ := strconv.Atoi(s[loc[g]:loc[g+1]])
		add(durationMatch{loc[0], loc[1], m})
	}
	return out
}

func nextIsAlnum(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	c := s[i]
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
