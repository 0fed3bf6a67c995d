// Package task contains the pure business logic for annotation tasks.
// Guards are pure functions that evaluate preconditions without side effects.
package task

import (
	"math"
	"time"

	"github.com/example/labelr/internal/core/guard"
	"github.com/example/labelr/internal/core/taskitem"
	"github.com/example/labelr/internal/errs"
)

// Status represents the possible states of an annotation task.
type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusCompleted  Status = "completed"
)

// Counters are the aggregate progress counters of a task.
// They are always derived from the task items, never set directly.
type Counters struct {
	Total     int
	Completed int
}

// Recount derives the counters from the statuses of the task items.
func Recount(items []taskitem.Status) Counters {
	c := Counters{Total: len(items)}
	for _, s := range items {
		if s == taskitem.StatusCompleted {
			c.Completed++
		}
	}
	return c
}

// ProgressPercent returns completed/total*100 rounded to two decimals, or 0 for an empty task.
func ProgressPercent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(completed) / float64(total) * 100
	return math.Round(p*100) / 100
}

// InitialStatus returns the status of a newly created task.
func InitialStatus() Status {
	return StatusAssigned
}

// NextStatusAfterStart returns the task status once one of its items is started.
func NextStatusAfterStart(current Status) Status {
	if current == StatusAssigned {
		return StatusInProgress
	}
	return current
}

// RecountResult captures the status change triggered by a recount.
type RecountResult struct {
	NewStatus   Status
	SubmittedAt *time.Time // Set when the task becomes submitted
}

// NextStatusAfterRecount applies the submission rule:
// - When every item is completed (and there is at least one), the task is submitted for review.
// The caller passes the current time to enable testing.
func NextStatusAfterRecount(current Status, c Counters, now time.Time) RecountResult {
	result := RecountResult{NewStatus: current}
	if current == StatusSubmitted || current == StatusCompleted {
		return result
	}
	if c.Total > 0 && c.Completed == c.Total {
		result.NewStatus = StatusSubmitted
		result.SubmittedAt = &now
	}
	return result
}

// ReviewResult captures the status change triggered by a review decision.
type ReviewResult struct {
	NewStatus   Status
	CompletedAt *time.Time // Set when the task becomes completed
}

// NextStatusAfterReview applies the completion rule:
// - A submitted task is completed once every one of its items carries a review decision.
func NextStatusAfterReview(current Status, reviewed, total int, now time.Time) ReviewResult {
	result := ReviewResult{NewStatus: current}
	if current != StatusSubmitted {
		return result
	}
	if total > 0 && reviewed >= total {
		result.NewStatus = StatusCompleted
		result.CompletedAt = &now
	}
	return result
}

// CanDeleteTask evaluates whether a task can be deleted.
// Rules:
// - Status must be "assigned" (no item started yet)
func CanDeleteTask(taskID int64, status Status) guard.Result {
	if status != StatusAssigned {
		return guard.Deny(errs.KindConflict, "can only delete tasks that have not been started (task %d is %s)", taskID, status)
	}
	return guard.Allow()
}

// CanAddItems evaluates whether more items can be attached to a task.
// Rules:
// - Status must be "assigned" or "in_progress"
func CanAddItems(taskID int64, status Status) guard.Result {
	if status != StatusAssigned && status != StatusInProgress {
		return guard.Deny(errs.KindConflict, "cannot add items to task %d (current status: %s)", taskID, status)
	}
	return guard.Allow()
}

// CheckCounters verifies the stored counters against the invariant.
// Rules:
// - CompletedItems must not exceed TotalItems
func CheckCounters(c Counters) guard.Result {
	if c.Completed > c.Total || c.Completed < 0 {
		return guard.Deny(errs.KindConflict, "completed items (%d) exceed total items (%d)", c.Completed, c.Total)
	}
	return guard.Allow()
}
