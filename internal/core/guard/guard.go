// Package guard holds the result type returned by every functional-core guard.
// Guards are pure functions that evaluate preconditions without side effects.
package guard

import (
	"fmt"

	"github.com/example/labelr/internal/errs"
)

// Result represents the outcome of a guard evaluation.
type Result struct {
	Allowed bool
	Kind    errs.Kind // set when !Allowed
	Field   string    // set for validation failures
	Reason  string
}

// Allow returns a passing result.
func Allow() Result {
	return Result{Allowed: true}
}

// Deny returns a failing result of the given kind.
func Deny(kind errs.Kind, format string, args ...any) Result {
	return Result{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// DenyField returns a failing validation result naming the offending field.
func DenyField(field, format string, args ...any) Result {
	return Result{Kind: errs.KindValidation, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Error converts the guard result to a typed error if not allowed.
func (r Result) Error() error {
	if r.Allowed {
		return nil
	}
	return &errs.Error{Kind: r.Kind, Field: r.Field, Message: r.Reason}
}
