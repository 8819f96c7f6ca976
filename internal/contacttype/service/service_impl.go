package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/contacttype/domain"
)

type service struct {
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &service{repo: repo, genID: genID}
}

func (s *service) CreateGroup(ctx context.Context, orgID snowflake.ID, name string) (*domain.ContactTypeGroup, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	group := &domain.ContactTypeGroup{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *service) CreateType(ctx context.Context, orgID snowflake.ID, groupID snowflake.ID, name string) (*domain.ContactType, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	if _, err := s.repo.FindGroup(ctx, orgID, groupID); err != nil {
		return nil, err
	}

	contactType := &domain.ContactType{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		GroupID:   groupID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateType(ctx, contactType); err != nil {
		return nil, err
	}
	return contactType, nil
}

func (s *service) ListGroups(ctx context.Context, orgID snowflake.ID) ([]domain.GroupWithTypes, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	groups, err := s.repo.ListGroups(ctx, orgID)
	if err != nil {
		return nil, err
	}
	types, err := s.repo.ListTypes(ctx, orgID)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[snowflake.ID][]domain.ContactType, len(groups))
	for _, t := range types {
		byGroup[t.GroupID] = append(byGroup[t.GroupID], t)
	}

	out := make([]domain.GroupWithTypes, 0, len(groups))
	for _, g := range groups {
		out = append(out, domain.GroupWithTypes{
			Group: g,
			Types: byGroup[g.ID],
		})
	}
	return out, nil
}
