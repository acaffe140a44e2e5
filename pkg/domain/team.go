package domain

import (
	"context"
	"time"
)

type TeamRole string

const (
	TeamRole_Owner  TeamRole = "owner"
	TeamRole_Admin  TeamRole = "admin"
	TeamRole_Editor TeamRole = "editor"
	TeamRole_Viewer TeamRole = "viewer"
)

// CanPublish reports whether the role may publish content and connect
// accounts on behalf of the team.
func (r TeamRole) CanPublish() bool {
	switch r {
	case TeamRole_Owner, TeamRole_Admin, TeamRole_Editor:
		return true
	default:
		return false
	}
}

type TeamMember struct {
	UserID string   `json:"user_id" bson:"user_id"`
	Role   TeamRole `json:"role" bson:"role"`
}

type Team struct {
	ID        string       `json:"id" bson:"id"`
	Slug      string       `json:"slug" bson:"slug"`
	Name      string       `json:"name" bson:"name"`
	Members   []TeamMember `json:"members" bson:"members"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
}

// RoleOf returns the member's role, or false when the user is not a member.
func (t Team) RoleOf(userID string) (TeamRole, bool) {
	for _, member := range t.Members {
		if member.UserID == userID {
			return member.Role, true
		}
	}
	return "", false
}

type TeamRepository interface {
	GetByID(ctx context.Context, id string) (Team, error)
	GetBySlug(ctx context.Context, slug string) (Team, error)
	Create(ctx context.Context, team Team) error
}
