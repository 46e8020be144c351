// Package policy holds the access rules for tasks. Every layer that needs an
// authorization decision calls in here; nothing else re-implements them.
package policy

import (
	"errors"

	"github.com/taskloop/task-tracker-api/internal/models"
)

// ErrAssigneeRequired is returned when an admin creates a task without naming
// an assignee.
var ErrAssigneeRequired = errors.New("assigned user is required for admin")

// ResolveAssignee decides who a task may be assigned to. Admins assign to
// anyone but must name someone. Non-admins always get themselves, regardless
// of what the request carried.
func ResolveAssignee(subject *models.User, requested uint64) (uint64, error) {
	if subject.IsAdmin() {
		if requested == 0 {
			return 0, ErrAssigneeRequired
		}
		return requested, nil
	}
	return subject.ID, nil
}

// CanModify reports whether the subject may update the task. Ownership is by
// creator, not assignee.
func CanModify(subject *models.User, task *models.Task) bool {
	return subject.IsAdmin() || task.CreatedByID == subject.ID
}

// CanDelete reports whether the subject may delete the task.
func CanDelete(subject *models.User, task *models.Task) bool {
	return subject.IsAdmin() || task.CreatedByID == subject.ID
}

// Scope is the visibility scope applied to task listings.
type Scope struct {
	// All is true when the subject sees every task.
	All bool
	// UserID scopes the listing to tasks the user created or is assigned to.
	UserID uint64
}

// ScopeFor returns the listing scope for the subject. Admins see everything;
// everyone else sees tasks they created or were assigned.
func ScopeFor(subject *models.User) Scope {
	if subject.IsAdmin() {
		return Scope{All: true}
	}
	return Scope{UserID: subject.ID}
}
