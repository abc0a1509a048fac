package domain

import (
	"fmt"
	"strings"
)

// Role is a member's role within a group.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleMember:
		return true
	}
	return false
}

// RoleAssignment is a request to give UserID the Role in a group, made by
// RequestedBy.
type RoleAssignment struct {
	UserID      string `json:"user_id"`
	Role        Role   `json:"role"`
	RequestedBy string `json:"requested_by"`
}

// Validate trims the fields and reports the first missing or invalid one.
func (a *RoleAssignment) Validate() error {
	a.UserID = strings.TrimSpace(a.UserID)
	a.RequestedBy = strings.TrimSpace(a.RequestedBy)
	a.Role = Role(strings.ToLower(strings.TrimSpace(string(a.Role))))

	switch {
	case a.UserID == "":
		return ValidationError("user_id is required").WithField("field", "user_id")
	case a.Role == "":
		return ValidationError("role is required").WithField("field", "role")
	case !a.Role.Valid():
		return ValidationError(fmt.Sprintf("role %q is not one of admin, moderator, member", a.Role)).
			WithField("field", "role")
	case a.RequestedBy == "":
		return ValidationError("requested_by is required").WithField("field", "requested_by")
	}
	return nil
}

// Notice is the system text broadcast to the group once the role is assigned.
func (a RoleAssignment) Notice() string {
	return fmt.Sprintf("System: User %s has been assigned the role of %s.", a.UserID, a.Role)
}

// RoleAssignmentResult is what the caller learns after an assignment.
type RoleAssignmentResult struct {
	GroupID   string
	UserID    string
	Role      Role
	Notified  int
	MessageID string
}

func (r RoleAssignmentResult) Summary() string {
	return fmt.Sprintf("Role '%s' assigned to user '%s'.", r.Role, r.UserID)
}
