package planner

import (
	"fmt"

	"alcyxob/endurance-planner/internal/domain"
)

// MinParseableRatio is the share of runs that must carry a duration for duration bands to be scored.
const MinParseableRatio = 0.8

// ValidationInput is the context a week is validated against.
type ValidationInput struct {
	Week    domain.WeekMeta
	Targets domain.WeekTargets
	Profile domain.AthleteProfile
	Prev    domain.WeekSummary
}

// ValidationResult lists every violation; no rule short-circuits another.
type ValidationResult struct {
	OK          bool
	Errors      []string
	Warnings    []string
	FailedRules []string
	Summary     domain.WeekSummary
}

// Validator evaluates a rule list against a week.
type Validator struct {
	rules []Rule
}

// NewValidator uses DefaultRules when no rules are given.
func NewValidator(rules ...Rule) *Validator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Validator{rules: rules}
}

func (v *Validator) Validate(content WeekContent, in ValidationInput) ValidationResult {
	facts := ComputeFacts(content, in.Week, in.Targets.LongRunDay)
	rc := &RuleContext{
		Facts:   facts,
		Targets: in.Targets,
		Week:    in.Week,
		Profile: in.Profile,
		Prev:    in.Prev,
	}

	res := ValidationResult{
		Summary: domain.WeekSummary{
			TotalMinutes:   facts.TotalMinutes,
			LongRunMinutes: facts.LongRunMinutes,
		},
	}

	scoreDurations := facts.ParseableRatio >= MinParseableRatio
	if !scoreDurations {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Only %.0f%% of runs declare a duration; weekly and long-run bands were not scored", facts.ParseableRatio*100))
	}
	for _, r := range facts.UntimedRuns {
		res.Warnings = append(res.Warnings, "Run without explicit duration: "+r)
	}

	for _, rule := range v.rules {
		if rule.NeedsDurations && !scoreDurations {
			continue
		}
		if msgs := rule.Check(rc); len(msgs) > 0 {
			res.Errors = append(res.Errors, msgs...)
			res.FailedRules = append(res.FailedRules, rule.Name)
		}
	}

	res.OK = len(res.Errors) == 0
	return res
}
