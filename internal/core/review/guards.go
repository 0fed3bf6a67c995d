// Package review contains the pure business logic for reviewer decisions.
package review

import (
	"sort"
	"strings"

	"github.com/example/labelr/internal/core/guard"
	"github.com/example/labelr/internal/errs"
)

// Decision is a reviewer's verdict on a data item.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ParseDecision validates a raw decision string.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case DecisionApproved, DecisionRejected:
		return d, nil
	}
	return "", errs.Validation("decision", "unknown review decision %q (want approved or rejected)", s)
}

// ValidateContext provides context for review validation.
type ValidateContext struct {
	Decision          Decision
	Feedback          string
	ErrorTypeIDs      []int64
	KnownErrorTypeIDs map[int64]bool
}

// Validate evaluates whether a review may be recorded.
// Rules:
// - Decision must be approved or rejected
// - A rejection needs non-blank feedback
// - A rejection needs at least one error type, each present in the lookup table
// - An approval ignores feedback and error types
func Validate(ctx ValidateContext) guard.Result {
	switch ctx.Decision {
	case DecisionApproved:
		return guard.Allow()
	case DecisionRejected:
	default:
		return guard.DenyField("decision", "unknown review decision %q", ctx.Decision)
	}

	if strings.TrimSpace(ctx.Feedback) == "" {
		return guard.DenyField("feedback", "feedback is required when rejecting")
	}
	if len(ctx.ErrorTypeIDs) == 0 {
		return guard.DenyField("error_type_ids", "at least one error type is required when rejecting")
	}
	for _, id := range ctx.ErrorTypeIDs {
		if !ctx.KnownErrorTypeIDs[id] {
			return guard.DenyField("error_type_ids", "unknown error type %d", id)
		}
	}
	return guard.Allow()
}

// Normalized is the review payload as it is persisted.
type Normalized struct {
	Feedback     string
	ErrorTypeIDs []int64
}

// Normalize strips what an approval ignores and de-duplicates error type ids.
func Normalize(d Decision, feedback string, errorTypeIDs []int64) Normalized {
	if d == DecisionApproved {
		return Normalized{}
	}
	seen := make(map[int64]bool, len(errorTypeIDs))
	ids := make([]int64, 0, len(errorTypeIDs))
	for _, id := range errorTypeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return Normalized{Feedback: strings.TrimSpace(feedback), ErrorTypeIDs: ids}
}
