package taskitem

import (
	"testing"
	"time"

	"github.com/example/labelr/internal/errs"
)

func TestCanStart(t *testing.T) {
	tests := []struct {
		name        string
		ctx         WorkContext
		wantAllowed bool
		wantKind    errs.Kind
		wantReason  string
	}{
		{
			name:        "owner starts assigned item",
			ctx:         WorkContext{TaskItemID: 1, Status: StatusAssigned, TaskAnnotatorID: 5, ActorID: 5},
			wantAllowed: true,
		},
		{
			name:       "other annotator is forbidden",
			ctx:        WorkContext{TaskItemID: 1, Status: StatusAssigned, TaskAnnotatorID: 5, ActorID: 6},
			wantKind:   errs.KindForbidden,
			wantReason: "task item 1 belongs to a task assigned to another annotator",
		},
		{
			name:       "already started",
			ctx:        WorkContext{TaskItemID: 1, Status: StatusInProgress, TaskAnnotatorID: 5, ActorID: 5},
			wantKind:   errs.KindConflict,
			wantReason: "can only start assigned task items (task item 1 is in_progress)",
		},
		{
			name:       "completed cannot restart",
			ctx:        WorkContext{TaskItemID: 2, Status: StatusCompleted, TaskAnnotatorID: 5, ActorID: 5},
			wantKind:   errs.KindConflict,
			wantReason: "can only start assigned task items (task item 2 is completed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanStart(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed {
				if result.Kind != tt.wantKind {
					t.Errorf("Kind = %q, want %q", result.Kind, tt.wantKind)
				}
				if result.Reason != tt.wantReason {
					t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
				}
			}
		})
	}
}

func TestCanComplete(t *testing.T) {
	tests := []struct {
		name        string
		ctx         WorkContext
		wantAllowed bool
		wantKind    errs.Kind
	}{
		{"owner completes in_progress item", WorkContext{TaskItemID: 1, Status: StatusInProgress, TaskAnnotatorID: 5, ActorID: 5}, true, ""},
		{"complete before start is a conflict", WorkContext{TaskItemID: 1, Status: StatusAssigned, TaskAnnotatorID: 5, ActorID: 5}, false, errs.KindConflict},
		{"complete twice is a conflict", WorkContext{TaskItemID: 1, Status: StatusCompleted, TaskAnnotatorID: 5, ActorID: 5}, false, errs.KindConflict},
		{"other annotator is forbidden", WorkContext{TaskItemID: 1, Status: StatusInProgress, TaskAnnotatorID: 5, ActorID: 9}, false, errs.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanComplete(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", result.Kind, tt.wantKind)
			}
		})
	}
}

func TestCanRemove(t *testing.T) {
	if !CanRemove(StatusAssigned).Allowed {
		t.Error("assigned items should be removable")
	}
	for _, s := range []Status{StatusInProgress, StatusCompleted} {
		if r := CanRemove(s); r.Allowed || r.Kind != errs.KindConflict {
			t.Errorf("CanRemove(%s) = %+v, want conflict", s, r)
		}
	}
}

func TestStampStarted(t *testing.T) {
	first := time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	got := StampStarted(nil, first)
	if got == nil || !got.Equal(first) {
		t.Fatalf("StampStarted(nil) = %v, want %v", got, first)
	}
	if again := StampStarted(got, later); !again.Equal(first) {
		t.Errorf("StampStarted should keep the first start, got %v", again)
	}
}
