package domain

import "strings"

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
)

// Roles in the order their path segments are matched.
var Roles = []Role{RoleClient, RoleOwner, RoleAdmin}

// Segment is the lowercase path segment of the role's portal ("client", "owner", "admin").
func (r Role) Segment() string {
	return strings.ToLower(string(r))
}

func (r Role) PortalPath() string {
	return "/view/" + r.Segment()
}

func (r Role) LoginPath() string {
	return r.PortalPath() + "/login"
}

func (r Role) TokenKey() string {
	return "authToken_" + string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// RoleFromSegment maps "client"/"owner"/"admin" back to a Role.
func RoleFromSegment(segment string) (Role, bool) {
	for _, r := range Roles {
		if r.Segment() == strings.ToLower(segment) {
			return r, true
		}
	}
	return "", false
}
