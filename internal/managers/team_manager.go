package managers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/gosimple/slug"
	"github.com/rs/xid"
)

type TeamManagerDependencies struct {
	TeamRepo domain.TeamRepository
}

// TeamManager creates teams and derives their URL slugs.
type TeamManager struct {
	teamRepo domain.TeamRepository
}

func NewTeamManager(deps TeamManagerDependencies) *TeamManager {
	return &TeamManager{teamRepo: deps.TeamRepo}
}

type CreateTeamParams struct {
	Name    string
	OwnerID string
}

func (m *TeamManager) CreateTeam(ctx context.Context, p CreateTeamParams) (domain.Team, error) {
	if p.Name == "" || p.OwnerID == "" {
		return domain.Team{}, domain.NewFlowError(domain.ErrorCode_MissingParams, "team name and owner are required")
	}

	teamSlug, err := m.uniqueSlug(ctx, p.Name)
	if err != nil {
		return domain.Team{}, err
	}

	team := domain.Team{
		ID:   xid.New().String(),
		Slug: teamSlug,
		Name: p.Name,
		Members: []domain.TeamMember{
			{UserID: p.OwnerID, Role: domain.TeamRole_Owner},
		},
		CreatedAt: time.Now(),
	}

	if err := m.teamRepo.Create(ctx, team); err != nil {
		return domain.Team{}, fmt.Errorf("create team: %w", err)
	}

	return team, nil
}

// uniqueSlug derives a slug from the team name, suffixing with a short ID
// when the plain slug is already taken.
func (m *TeamManager) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "team"
	}

	_, err := m.teamRepo.GetBySlug(ctx, base)
	if errors.Is(err, domain.ErrTeamNotFound) {
		return base, nil
	}
	if err != nil {
		return "", fmt.Errorf("check slug availability: %w", err)
	}

	return base + "-" + xid.New().String()[:8], nil
}
