// Package access holds the role checks applied before any workflow mutation.
package access

import (
	"strings"

	"github.com/example/labelr/internal/core/guard"
	"github.com/example/labelr/internal/errs"
)

// Role is a user's role on the platform.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleAnnotator Role = "annotator"
	RoleReviewer  Role = "reviewer"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleManager, RoleAnnotator, RoleReviewer:
		return r, nil
	}
	return "", errs.Validation("role", "unknown role %q (want admin, manager, annotator or reviewer)", s)
}

// Actor is the acting user as seen by the role checks.
type Actor struct {
	ID       int64
	Role     Role
	IsActive bool
}

func allow(a Actor, action string, roles ...Role) guard.Result {
	if !a.IsActive {
		return guard.Deny(errs.KindUnauthorized, "user %d is deactivated", a.ID)
	}
	for _, r := range roles {
		if a.Role == r {
			return guard.Allow()
		}
	}
	return guard.Deny(errs.KindForbidden, "role %s cannot %s", a.Role, action)
}

// CanManageTasks allows admins and managers to create, change and delete tasks.
func CanManageTasks(a Actor) guard.Result {
	return allow(a, "manage tasks", RoleAdmin, RoleManager)
}

// CanManageProjects allows admins and managers to manage projects, labels and datasets.
func CanManageProjects(a Actor) guard.Result {
	return allow(a, "manage projects", RoleAdmin, RoleManager)
}

// CanReview allows reviewers, managers and admins to record review decisions.
func CanReview(a Actor) guard.Result {
	return allow(a, "review items", RoleAdmin, RoleManager, RoleReviewer)
}

// CanAnnotate allows annotators and admins to save annotations.
func CanAnnotate(a Actor) guard.Result {
	return allow(a, "annotate items", RoleAdmin, RoleAnnotator)
}

// CanManageUsers allows admins only.
func CanManageUsers(a Actor) guard.Result {
	return allow(a, "manage users", RoleAdmin)
}

// CanBeAssigned evaluates whether a user can receive an annotation task.
// Rules:
// - The user must be active
// - The user must hold the annotator role
func CanBeAssigned(a Actor) guard.Result {
	if !a.IsActive {
		return guard.DenyField("annotator_id", "user %d is deactivated", a.ID)
	}
	if a.Role != RoleAnnotator {
		return guard.DenyField("annotator_id", "user %d is a %s, not an annotator", a.ID, a.Role)
	}
	return guard.Allow()
}
