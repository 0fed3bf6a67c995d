// Package dataitem contains the pure status machine for data items.
// This is part of the Functional Core - no I/O, only pure functions.
package dataitem

import (
	"github.com/example/labelr/internal/core/guard"
	"github.com/example/labelr/internal/errs"
)

// Status represents the possible states of a data item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

// transitions lists every legal edge. Back-edges are limited to releasing an
// unstarted assignment and sending a rejected item back into the queue.
var transitions = map[Status][]Status{
	StatusPending:    {StatusAssigned},
	StatusAssigned:   {StatusInProgress, StatusPending},
	StatusInProgress: {StatusSubmitted},
	StatusSubmitted:  {StatusApproved, StatusRejected},
	StatusRejected:   {StatusAssigned, StatusPending},
	StatusApproved:   nil,
}

// AllStatuses returns the statuses in workflow order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusAssigned, StatusInProgress, StatusSubmitted, StatusApproved, StatusRejected}
}

// InitialStatus returns the status of a freshly uploaded item.
func InitialStatus() Status {
	return StatusPending
}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", errs.Validation("status", "unknown data item status %q", s)
	}
	return st, nil
}

// IsReviewed reports whether the item carries a review decision.
func (s Status) IsReviewed() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition evaluates whether an item may move from one status to another.
// Rules:
// - The edge must exist in the transition table (no skipping)
// - Unknown statuses are never legal
func CanTransition(from, to Status) guard.Result {
	next, ok := transitions[from]
	if !ok {
		return guard.Deny(errs.KindConflict, "unknown data item status %q", from)
	}
	for _, s := range next {
		if s == to {
			return guard.Allow()
		}
	}
	return guard.Deny(errs.KindConflict, "data item cannot move from %s to %s", from, to)
}

// CanAssign requires pending, or rejected for re-annotation.
func CanAssign(from Status) guard.Result { return CanTransition(from, StatusAssigned) }

// CanStart requires assigned.
func CanStart(from Status) guard.Result { return CanTransition(from, StatusInProgress) }

// CanSubmit requires in_progress.
func CanSubmit(from Status) guard.Result { return CanTransition(from, StatusSubmitted) }

// CanApprove requires submitted.
func CanApprove(from Status) guard.Result { return CanTransition(from, StatusApproved) }

// CanReject requires submitted.
func CanReject(from Status) guard.Result { return CanTransition(from, StatusRejected) }

// CanRelease returns an item to the queue (unstarted assignment or rejected item).
func CanRelease(from Status) guard.Result { return CanTransition(from, StatusPending) }

// BulkTargetAllowed evaluates whether a bulk update may target the status.
// Rules:
// - approved/rejected need a review with its feedback and error types
// - assigned needs a task to own the assignment
func BulkTargetAllowed(to Status) guard.Result {
	switch to {
	case StatusApproved, StatusRejected:
		return guard.DenyField("status", "%s can only be set by creating a review", to)
	case StatusAssigned:
		return guard.DenyField("status", "assigned can only be set by assigning the item to a task")
	}
	if _, ok := transitions[to]; !ok {
		return guard.DenyField("status", "unknown data item status %q", to)
	}
	return guard.Allow()
}

// CanBulkTransition evaluates one item of a bulk status update.
// Rules:
// - The target must be allowed for bulk updates
// - pending may only be reached from rejected (an assigned item is released by its task)
// - Otherwise the ordinary transition table applies
func CanBulkTransition(from, to Status) guard.Result {
	if r := BulkTargetAllowed(to); !r.Allowed {
		return r
	}
	if to == StatusPending && from != StatusRejected {
		return guard.Deny(errs.KindConflict, "only rejected items can be requeued (current status: %s)", from)
	}
	return CanTransition(from, to)
}

// CanAnnotate evaluates whether the annotations of an item may be replaced.
// Rules:
// - The item must be assigned or in_progress (submitted and reviewed work is frozen)
func CanAnnotate(id int64, s Status) guard.Result {
	if s != StatusAssigned && s != StatusInProgress {
		return guard.Deny(errs.KindConflict, "annotations can only be saved while data item %d is assigned or in_progress (current status: %s)", id, s)
	}
	return guard.Allow()
}

// CanRemove evaluates whether an item may be deleted from its dataset.
// Rules:
// - Only pending items (never assigned, or released) can be removed
func CanRemove(id int64, s Status) guard.Result {
	if s != StatusPending {
		return guard.Deny(errs.KindConflict, "only pending data items can be removed (data item %d is %s)", id, s)
	}
	return guard.Allow()
}
