// Package taskitem contains the pure business logic for per-item progress
// records inside an annotation task.
package taskitem

import (
	"time"

	"github.com/example/labelr/internal/core/guard"
	"github.com/example/labelr/internal/errs"
)

// Status represents the possible states of a task item.
type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// WorkContext provides context for annotator work guards.
type WorkContext struct {
	TaskItemID      int64
	Status          Status
	TaskAnnotatorID int64
	ActorID         int64
}

// CanStart evaluates whether an annotator can start working on a task item.
// Rules:
// - The parent task must be assigned to the actor
// - Status must be "assigned"
func CanStart(ctx WorkContext) guard.Result {
	if ctx.TaskAnnotatorID != ctx.ActorID {
		return guard.Deny(errs.KindForbidden, "task item %d belongs to a task assigned to another annotator", ctx.TaskItemID)
	}
	if ctx.Status != StatusAssigned {
		return guard.Deny(errs.KindConflict, "can only start assigned task items (task item %d is %s)", ctx.TaskItemID, ctx.Status)
	}
	return guard.Allow()
}

// CanComplete evaluates whether an annotator can complete a task item.
// Rules:
// - The parent task must be assigned to the actor
// - Status must be "in_progress"
func CanComplete(ctx WorkContext) guard.Result {
	if ctx.TaskAnnotatorID != ctx.ActorID {
		return guard.Deny(errs.KindForbidden, "task item %d belongs to a task assigned to another annotator", ctx.TaskItemID)
	}
	if ctx.Status != StatusInProgress {
		return guard.Deny(errs.KindConflict, "can only complete in_progress task items (task item %d is %s)", ctx.TaskItemID, ctx.Status)
	}
	return guard.Allow()
}

// CanRemove evaluates whether an item can be taken out of its task.
// Rules:
// - Status must be "assigned" (work not started)
func CanRemove(status Status) guard.Result {
	if status != StatusAssigned {
		return guard.Deny(errs.KindConflict, "can only remove items that have not been started (current status: %s)", status)
	}
	return guard.Allow()
}

// StampStarted returns the StartedAt value after a start: the first start wins.
func StampStarted(existing *time.Time, now time.Time) *time.Time {
	if existing != nil {
		return existing
	}
	return &now
}
