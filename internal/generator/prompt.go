package generator

import (
	"fmt"
	"strings"
	"time"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/planner"
)

// RenderPrompt embeds the profile and the week's numeric targets as plain language.
func RenderPrompt(req WeekRequest) string {
	p := req.Profile
	t := req.Targets
	w := req.Week
	dates := planner.CanonicalDateKeys(w.StartDate)

	var b strings.Builder
	b.WriteString("You are an endurance coach writing one week of a periodized training plan.\n\n")

	b.WriteString("Athlete:\n")
	fmt.Fprintf(&b, "- Race: %s (%s) on %s\n", raceName(p), p.RaceFamily, p.RaceDate.Format(planner.DateLayout))
	fmt.Fprintf(&b, "- Experience: %s\n", p.Experience)
	fmt.Fprintf(&b, "- Available time: up to %.1f hours per week\n", p.MaxWeeklyHours)
	fmt.Fprintf(&b, "- Rest day: %s. Long run day: %s. Brick days: %s\n", p.RestDay, p.LongRunDay, weekdays(p.AllowedBrickDays()))
	writeThresholds(&b, p.Thresholds)
	if pref := strings.TrimSpace(p.Preferences); pref != "" {
		fmt.Fprintf(&b, "- Notes from the athlete: %s\n", pref)
	}

	b.WriteString("\nWeek:\n")
	fmt.Fprintf(&b, "- %s, phase %s", w.Label, w.Phase)
	if w.Deload {
		b.WriteString(", DELOAD week (reduce volume and long run versus last week)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Dates: %s to %s. Use exactly these 7 date keys: %s\n", dates[0], dates[6], strings.Join(dates[:], ", "))
	if req.Previous.TotalMinutes > 0 {
		fmt.Fprintf(&b, "- Last week: %d min total, long run %d min\n", req.Previous.TotalMinutes, req.Previous.LongRunMinutes)
	}
	if w.RaceDay != nil {
		fmt.Fprintf(&b, "- Race day is %s; keep the days before it light. Do not schedule the race itself.\n", w.RaceDay.Format(planner.DateLayout))
	}

	b.WriteString("\nTargets (hard limits):\n")
	fmt.Fprintf(&b, "- Weekly total: %d min (within 5%%)\n", t.WeeklyMinutes)
	fmt.Fprintf(&b, "- Long run: about %d min, never above %d min", t.LongRunMinutes, t.LongRunMax)
	if t.LongRunMin > 0 {
		fmt.Fprintf(&b, ", at least %d min", t.LongRunMin)
	}
	if w.RaceDay != nil {
		b.WriteString(", on any day before the race\n")
	} else {
		fmt.Fprintf(&b, ", on %s\n", t.LongRunDay)
	}
	fmt.Fprintf(&b, "- No single run longer than %d min\n", t.MaxSessionMinutes)
	fmt.Fprintf(&b, "- Quality run days (tempo, threshold, intervals, hills): at least 1, at most %d, total hard minutes at most %d, never on consecutive days\n", t.QualityDays, t.MaxQualityMinutes)
	b.WriteString("- The day after a quality run is easy with under 60 min of running\n")
	b.WriteString("- 2 to 3 short easy runs under 55 min; at least one easy run includes strides\n")
	if p.RaceFamily == domain.RaceMarathon && w.Phase != domain.PhaseTaper {
		b.WriteString("- Include one medium-long easy run of 55-80 min besides the long run\n")
	}
	b.WriteString("- At most 2 runs of 70+ min, no 3 consecutive days with 60+ min runs, no run duration used more than twice\n")
	if p.Experience != domain.ExperienceAdvanced {
		b.WriteString("- One run per day at most\n")
	}
	if w.Phase == domain.PhaseBase || w.Phase == domain.PhaseBuild {
		b.WriteString("- Strength sessions only on Tuesday or Thursday\n")
	}
	if p.RaceFamily.IsTriathlon() {
		b.WriteString("- Include swim and bike sessions; bricks only on the brick days\n")
	}

	if len(req.Violations) > 0 {
		b.WriteString("\nYour previous draft was rejected. Fix all of these:\n")
		for _, v := range req.Violations {
			fmt.Fprintf(&b, "- %s\n", v)
		}
	}

	b.WriteString(`
Format every session as: "<emoji> <Title> <N> min — <details>".
Emoji: 🏃 run, 🚴 bike, 🏊 swim, 💪 strength, 🧱 brick, 🛌 rest.
Respond with ONLY a JSON object:
{"label": "...", "phase": "...", "startDate": "YYYY-MM-DD", "deload": false, "days": {"YYYY-MM-DD": ["session", ...]}}
`)
	return b.String()
}

func raceName(p domain.AthleteProfile) string {
	if p.RaceName != "" {
		return p.RaceName
	}
	return string(p.RaceFamily)
}

func weekdays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}

func writeThresholds(b *strings.Builder, t domain.Thresholds) {
	if t.BikeFTPWatts != nil {
		fmt.Fprintf(b, "- Bike FTP: %.0f W\n", *t.BikeFTPWatts)
	}
	if t.RunThresholdPaceSecK != nil {
		sec := int(*t.RunThresholdPaceSecK)
		fmt.Fprintf(b, "- Run threshold pace: %d:%02d /km\n", sec/60, sec%60)
	}
	if t.SwimCSSSec100m != nil {
		sec := int(*t.SwimCSSSec100m)
		fmt.Fprintf(b, "- Swim CSS: %d:%02d /100m\n", sec/60, sec%60)
	}
}
