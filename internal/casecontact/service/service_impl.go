package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/casecontact/domain"
	"github.com/smallbiznis/advocase/internal/clock"
	ctdomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	ContactTypes ctdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	contactTypes ctdomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("casecontact.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		contactTypes: p.ContactTypes,
	}
}

func (s *Service) CreateContact(ctx context.Context, orgID snowflake.ID, creatorUserID snowflake.ID, req domain.CreateContactRequest) (*domain.CaseContact, error) {
	var verrs domain.ValidationErrors
	if req.OccurredAt == nil || req.OccurredAt.IsZero() {
		verrs = append(verrs, domain.MsgOccurredAtBlank)
	}
	if req.DurationMinutes <= 0 {
		verrs = append(verrs, domain.MsgDurationInvalid)
	}
	if !domain.ValidMedium(strings.TrimSpace(req.Medium)) {
		verrs = append(verrs, domain.MsgMediumInvalid)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	contact := &domain.CaseContact{
		ID:                       s.genID.Generate(),
		OrgID:                    orgID,
		CasaCaseID:               req.CasaCaseID,
		CreatorUserID:            creatorUserID,
		OccurredAt:               req.OccurredAt.UTC(),
		DurationMinutes:          req.DurationMinutes,
		ContactMade:              req.ContactMade,
		Medium:                   strings.TrimSpace(req.Medium),
		MilesDriven:              req.MilesDriven,
		WantDrivingReimbursement: req.WantDrivingReimbursement,
		Notes:                    req.Notes,
		CreatedAt:                s.clock.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateContact(ctx, contact); err != nil {
			return err
		}
		if len(req.ContactTypeIDs) == 0 {
			return nil
		}
		valid, err := s.contactTypes.FindTypesByIDs(ctx, orgID, req.ContactTypeIDs)
		if err != nil {
			return err
		}
		for _, t := range valid {
			link := &domain.CaseContactContactType{
				ID:            s.genID.Generate(),
				CaseContactID: contact.ID,
				ContactTypeID: t.ID,
			}
			if err := repo.AddContactType(ctx, link); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) ListContactsForCase(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID) ([]domain.ContactWithTypes, error) {
	contacts, err := s.repo.ListContactsByCase(ctx, orgID, caseID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ContactWithTypes, 0, len(contacts))
	for _, contact := range contacts {
		typeIDs, err := s.repo.ListContactTypeIDs(ctx, contact.ID)
		if err != nil {
			return nil, err
		}
		types, err := s.contactTypes.FindTypesByIDs(ctx, orgID, typeIDs)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(types))
		for _, t := range types {
			names = append(names, t.Name)
		}
		out = append(out, domain.ContactWithTypes{
			Contact:      contact,
			ContactTypes: names,
		})
	}
	return out, nil
}

func (s *Service) CreateOtherDuty(ctx context.Context, orgID snowflake.ID, creatorUserID snowflake.ID, req domain.CreateOtherDutyRequest) (*domain.OtherDuty, error) {
	var verrs domain.ValidationErrors
	if req.OccurredAt == nil || req.OccurredAt.IsZero() {
		verrs = append(verrs, domain.MsgOccurredAtBlank)
	}
	if req.DurationMinutes <= 0 {
		verrs = append(verrs, domain.MsgDurationInvalid)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	duty := &domain.OtherDuty{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		CreatorUserID:   creatorUserID,
		OccurredAt:      req.OccurredAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.repo.CreateOtherDuty(ctx, duty); err != nil {
		return nil, err
	}
	return duty, nil
}

func (s *Service) ListOtherDuties(ctx context.Context, orgID snowflake.ID, creatorUserID snowflake.ID) ([]domain.OtherDuty, error) {
	return s.repo.ListOtherDuties(ctx, orgID, creatorUserID)
}

func (s *Service) CreateLearningHour(ctx context.Context, orgID snowflake.ID, userID snowflake.ID, req domain.CreateLearningHourRequest) (*domain.LearningHour, error) {
	var verrs domain.ValidationErrors
	if strings.TrimSpace(req.Title) == "" {
		verrs = append(verrs, domain.MsgTitleBlank)
	}
	if req.DurationMinutes <= 0 {
		verrs = append(verrs, domain.MsgDurationInvalid)
	}
	if req.OccurredAt == nil || req.OccurredAt.IsZero() {
		verrs = append(verrs, domain.MsgOccurredAtBlank)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	hour := &domain.LearningHour{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		UserID:          userID,
		Title:           strings.TrimSpace(req.Title),
		DurationMinutes: req.DurationMinutes,
		OccurredAt:      req.OccurredAt.UTC(),
		CreatedAt:       s.clock.Now(),
	}
	if err := s.repo.CreateLearningHour(ctx, hour); err != nil {
		return nil, err
	}
	return hour, nil
}
