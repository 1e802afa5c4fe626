package planner

import "time"

// DateLayout is the ISO calendar date used for every persisted session date.
const DateLayout = "2006-01-02"

// DateOnly truncates t to UTC midnight of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MondayOf returns the Monday of the ISO week containing t.
func MondayOf(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// CanonicalDates returns the seven Monday..Sunday dates of the week containing start.
func CanonicalDates(start time.Time) [7]time.Time {
	var out [7]time.Time
	monday := MondayOf(start)
	for i := range out {
		out[i] = monday.AddDate(0, 0, i)
	}
	return out
}

// CanonicalDateKeys is CanonicalDates formatted with DateLayout.
func CanonicalDateKeys(start time.Time) [7]string {
	var out [7]string
	for i, d := range CanonicalDates(start) {
		out[i] = d.Format(DateLayout)
	}
	return out
}

// WeeksUntilRace counts weeks from the Monday of start to the Monday of race, race week included.
func WeeksUntilRace(start, race time.Time) int {
	days := MondayOf(race).Sub(MondayOf(start)).Hours() / 24
	weeks := int(days)/7 + 1
	if weeks < 1 {
		return 1
	}
	return weeks
}

// weekdayIndex maps a weekday onto its Monday-based position (Monday=0, Sunday=6).
func weekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
