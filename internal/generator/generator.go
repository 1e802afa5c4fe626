package generator

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/planner"
)

// WeekRequest is everything the text generator needs to draft one week.
type WeekRequest struct {
	Profile  domain.AthleteProfile
	Week     domain.WeekMeta
	Targets  domain.WeekTargets
	Previous domain.WeekSummary
	// Violations from the previous attempt, rendered into the prompt as corrections.
	Violations []string
	Attempt    int
}

// GeneratedWeek is the decoded generator response. Its dates are untrusted.
type GeneratedWeek struct {
	Label     string              `json:"label"`
	Phase     string              `json:"phase"`
	StartDate string              `json:"startDate"`
	Deload    bool                `json:"deload"`
	Days      planner.WeekContent `json:"days"`
}

//go:generate mockgen -source=$GOFILE -destination=../service/generator_mocks_test.go -package=service_test

// WeekGenerator drafts week content. Implementations return *GenerationError on failure.
type WeekGenerator interface {
	GenerateWeek(ctx context.Context, req WeekRequest) (*GeneratedWeek, error)
}

type ErrorKind int

const (
	// KindTransport covers failed calls: network, quota, empty candidates.
	KindTransport ErrorKind = iota
	// KindParse means a response arrived but is not a week object.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	default:
		return "transport"
	}
}

type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("week generation %s error: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func transportError(err error) error {
	return &GenerationError{Kind: KindTransport, Err: err}
}

func parseError(err error) error {
	return &GenerationError{Kind: KindParse, Err: err}
}

// IsParseError reports whether err is a malformed-response failure.
func IsParseError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge) && ge.Kind == KindParse
}
