package auth

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the role claim carried by a report user's token.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleOperator   Role = "operator"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// Permission is one action on alarm reports.
type Permission string

const (
	PermViewReports     Permission = "reports:view"
	PermGenerateReports Permission = "reports:generate"
	PermReviewReports   Permission = "reports:review"
)

var grants = map[Role][]Permission{
	RoleViewer:     {PermViewReports},
	RoleOperator:   {PermViewReports, PermGenerateReports},
	RoleSupervisor: {PermViewReports, PermGenerateReports, PermReviewReports},
	RoleAdmin:      {PermViewReports, PermGenerateReports, PermReviewReports},
}

// ParseRole reads a role claim case-insensitively. "reviewer" is accepted for supervisor.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if role == "reviewer" {
		role = RoleSupervisor
	}
	if _, ok := grants[role]; !ok {
		return "", fmt.Errorf("auth: unknown role %q", value)
	}
	return role, nil
}

// Can reports whether the role is granted p.
func (r Role) Can(p Permission) bool {
	return slices.Contains(grants[r], p)
}
