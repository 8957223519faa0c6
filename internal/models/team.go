package models

import "time"

// TeamRole is the access level of a team member.
type TeamRole string

const (
	RoleOwner  TeamRole = "owner"
	RoleAdmin  TeamRole = "admin"
	RoleMember TeamRole = "member"
)

// TeamMember represents one member (or pending invite) of a team.
type TeamMember struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      TeamRole   `json:"role"`
	Status    string     `json:"status"` // "active" or "invited"
	InvitedAt time.Time  `json:"invited_at"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
}
