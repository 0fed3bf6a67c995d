package secondary

import (
	"context"
	"time"
)

// ActivitySink defines the interface for writing activity log entries.
// Writes are fire-and-forget for workflow callers: errors are logged, never
// returned to the operation that produced the entry.
type ActivitySink interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// ActivityEntry is one audited action.
type ActivityEntry struct {
	UserID        int64          `json:"user_id"`
	Action        string         `json:"action"`
	TargetType    string         `json:"target_type"`
	TargetID      int64          `json:"target_id"`
	Details       map[string]any `json:"details,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	At            time.Time      `json:"at"`
}

// WorkflowObserver receives committed status transitions. Implementations
// must not block.
type WorkflowObserver interface {
	DataItemTransition(from, to string)
	TaskTransition(from, to string)
	ReviewRecorded(decision string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) DataItemTransition(string, string) {}
func (NopObserver) TaskTransition(string, string)     {}
func (NopObserver) ReviewRecorded(string)             {}
