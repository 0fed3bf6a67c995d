package dataitem

import (
	"testing"

	"github.com/example/labelr/internal/errs"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name        string
		from, to    Status
		wantAllowed bool
		wantReason  string
	}{
		{"pending to assigned", StatusPending, StatusAssigned, true, ""},
		{"assigned to in_progress", StatusAssigned, StatusInProgress, true, ""},
		{"in_progress to submitted", StatusInProgress, StatusSubmitted, true, ""},
		{"submitted to approved", StatusSubmitted, StatusApproved, true, ""},
		{"submitted to rejected", StatusSubmitted, StatusRejected, true, ""},
		{"rejected back to assigned", StatusRejected, StatusAssigned, true, ""},
		{"rejected requeued", StatusRejected, StatusPending, true, ""},
		{"assigned released", StatusAssigned, StatusPending, true, ""},
		{
			name: "pending cannot skip to submitted", from: StatusPending, to: StatusSubmitted,
			wantReason: "data item cannot move from pending to submitted",
		},
		{
			name: "pending cannot be approved", from: StatusPending, to: StatusApproved,
			wantReason: "data item cannot move from pending to approved",
		},
		{
			name: "assigned cannot be submitted", from: StatusAssigned, to: StatusSubmitted,
			wantReason: "data item cannot move from assigned to submitted",
		},
		{
			name: "approved is terminal", from: StatusApproved, to: StatusAssigned,
			wantReason: "data item cannot move from approved to assigned",
		},
		{
			name: "in_progress cannot go back", from: StatusInProgress, to: StatusAssigned,
			wantReason: "data item cannot move from in_progress to assigned",
		},
		{
			name: "unknown source status", from: Status("archived"), to: StatusPending,
			wantReason: `unknown data item status "archived"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanTransition(tt.from, tt.to)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed {
				if result.Reason != tt.wantReason {
					t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
				}
				if !errs.IsConflict(result.Error()) {
					t.Errorf("expected conflict error, got %v", result.Error())
				}
			}
		})
	}
}

func TestCanTransition_EveryIllegalEdgeIsConflict(t *testing.T) {
	legal := map[[2]Status]bool{}
	for from, tos := range transitions {
		for _, to := range tos {
			legal[[2]Status{from, to}] = true
		}
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			result := CanTransition(from, to)
			if legal[[2]Status{from, to}] {
				if !result.Allowed {
					t.Errorf("%s -> %s should be allowed", from, to)
				}
				continue
			}
			if result.Allowed {
				t.Errorf("%s -> %s should be denied", from, to)
			}
			if result.Kind != errs.KindConflict {
				t.Errorf("%s -> %s kind = %q, want conflict", from, to, result.Kind)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := ParseStatus("in_progress"); err != nil || st != StatusInProgress {
		t.Errorf("ParseStatus(in_progress) = %q, %v", st, err)
	}
	_, err := ParseStatus("done")
	if !errs.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCanBulkTransition(t *testing.T) {
	tests := []struct {
		name        string
		from, to    Status
		wantAllowed bool
		wantKind    errs.Kind
	}{
		{"assigned to in_progress", StatusAssigned, StatusInProgress, true, ""},
		{"in_progress to submitted", StatusInProgress, StatusSubmitted, true, ""},
		{"rejected requeued", StatusRejected, StatusPending, true, ""},
		{"approve needs review", StatusSubmitted, StatusApproved, false, errs.KindValidation},
		{"reject needs review", StatusSubmitted, StatusRejected, false, errs.KindValidation},
		{"assign needs task", StatusPending, StatusAssigned, false, errs.KindValidation},
		{"assigned cannot be requeued in bulk", StatusAssigned, StatusPending, false, errs.KindConflict},
		{"pending cannot skip to submitted", StatusPending, StatusSubmitted, false, errs.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanBulkTransition(tt.from, tt.to)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (%s)", result.Allowed, tt.wantAllowed, result.Reason)
			}
			if !tt.wantAllowed && result.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", result.Kind, tt.wantKind)
			}
		})
	}
}

func TestIsReviewed(t *testing.T) {
	for _, s := range AllStatuses() {
		want := s == StatusApproved || s == StatusRejected
		if s.IsReviewed() != want {
			t.Errorf("%s.IsReviewed() = %v, want %v", s, s.IsReviewed(), want)
		}
	}
}

func TestCanAnnotate(t *testing.T) {
	for _, s := range AllStatuses() {
		result := CanAnnotate(1, s)
		want := s == StatusAssigned || s == StatusInProgress
		if result.Allowed != want {
			t.Errorf("CanAnnotate(%s).Allowed = %v, want %v", s, result.Allowed, want)
		}
		if !want && result.Kind != errs.KindConflict {
			t.Errorf("CanAnnotate(%s).Kind = %s, want conflict", s, result.Kind)
		}
	}
}

func TestCanRemove(t *testing.T) {
	if r := CanRemove(1, StatusPending); !r.Allowed {
		t.Errorf("expected pending item to be removable, got %q", r.Reason)
	}
	for _, s := range []Status{StatusAssigned, StatusInProgress, StatusSubmitted, StatusApproved, StatusRejected} {
		if r := CanRemove(1, s); r.Allowed || r.Kind != errs.KindConflict {
			t.Errorf("CanRemove(%s) = %+v, want conflict", s, r)
		}
	}
}
