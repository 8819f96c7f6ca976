package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/advocase/internal/organization/domain"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(db *gorm.DB, repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &service{
		db:    db,
		repo:  repo,
		genID: genID,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	orgID := s.genID.Generate()
	org := domain.Organization{
		ID:        orgID,
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}

		member := domain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			UserID:    userID,
			Role:      domain.RoleAdmin,
			CreatedAt: now,
		}

		return repo.AddMember(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	return &domain.OrganizationResponse{
		ID:   orgID.String(),
		Name: name,
		Slug: org.Slug,
	}, nil
}

func (s *service) ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationListResponseItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.OrganizationListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.OrganizationListResponseItem{
			ID:        item.ID.String(),
			Name:      item.Name,
			Role:      item.Role,
			CreatedAt: item.CreatedAt,
		})
	}

	return resp, nil
}

func (s *service) AddMember(ctx context.Context, orgID snowflake.ID, userID snowflake.ID, role string) error {
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !domain.ValidRole(role) {
		return domain.ErrInvalidRole
	}

	return s.repo.AddMember(ctx, domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *service) AssignSupervisor(ctx context.Context, orgID snowflake.ID, supervisorUserID snowflake.ID, volunteerUserID snowflake.ID) error {
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	if supervisorUserID == 0 || volunteerUserID == 0 {
		return domain.ErrInvalidUser
	}

	supervisorRole, err := s.repo.RoleOfMember(ctx, orgID, supervisorUserID)
	if err != nil {
		return err
	}
	if supervisorRole != domain.RoleSupervisor && supervisorRole != domain.RoleAdmin {
		return domain.ErrInvalidRole
	}

	volunteerRole, err := s.repo.RoleOfMember(ctx, orgID, volunteerUserID)
	if err != nil {
		return err
	}
	if volunteerRole != domain.RoleVolunteer {
		return domain.ErrInvalidRole
	}

	return s.repo.UpsertSupervisorVolunteer(ctx, domain.SupervisorVolunteer{
		ID:               s.genID.Generate(),
		OrgID:            orgID,
		SupervisorUserID: supervisorUserID,
		VolunteerUserID:  volunteerUserID,
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
	})
}
