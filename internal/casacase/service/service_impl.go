package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/advocase/internal/audit/domain"
	"github.com/smallbiznis/advocase/internal/casacase/domain"
	"github.com/smallbiznis/advocase/internal/clock"
	ctdomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	orgdomain "github.com/smallbiznis/advocase/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgCaseNumberBlank = "Case number can't be blank"
	msgBirthBlank      = "Birth month year youth can't be blank"
	msgCaseNumberTaken = "Case number has already been taken"
	msgStatusInvalid   = "Court report status is not included in the list"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	ContactTypes ctdomain.Repository
	Guard        domain.TransitionGuard
	AuditSvc     auditdomain.Service `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	contactTypes ctdomain.Repository
	guard        domain.TransitionGuard
	auditSvc     auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("casacase.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		contactTypes: p.ContactTypes,
		guard:        p.Guard,
		auditSvc:     p.AuditSvc,
	}
}

// AllowAllGuard is the default transition guard.
type AllowAllGuard struct{}

func NewAllowAllGuard() domain.TransitionGuard {
	return AllowAllGuard{}
}

func (AllowAllGuard) Check(ctx context.Context, casaCase *domain.CasaCase, targetActive bool) error {
	return nil
}

func (s *Service) Create(ctx context.Context, orgID snowflake.ID, actor domain.Actor, req domain.CreateCaseRequest) (*domain.CaseDetail, error) {
	if !domain.CanCreate(actor.Role) {
		return nil, domain.ErrNotAuthorized
	}

	var verrs domain.ValidationErrors
	caseNumber := strings.TrimSpace(req.CaseNumber)
	if caseNumber == "" {
		verrs = append(verrs, msgCaseNumberBlank)
	}
	if req.BirthMonthYearYouth == nil || req.BirthMonthYearYouth.IsZero() {
		verrs = append(verrs, msgBirthBlank)
	}
	status := strings.TrimSpace(req.CourtReportStatus)
	if status == "" {
		status = domain.CourtReportNotSubmitted
	}
	if !domain.ValidCourtReportStatus(status) {
		verrs = append(verrs, msgStatusInvalid)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	if _, err := s.repo.FindByNumber(ctx, orgID, caseNumber); err == nil {
		return nil, domain.ValidationErrors{msgCaseNumberTaken}
	} else if !errors.Is(err, domain.ErrCaseNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	casaCase := &domain.CasaCase{
		ID:                  s.genID.Generate(),
		OrgID:               orgID,
		CaseNumber:          caseNumber,
		BirthMonthYearYouth: req.BirthMonthYearYouth.UTC(),
		Active:              true,
		CourtReportStatus:   status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	// A nested court order batch on create never persists; the case is
	// created with zero orders and the batch is discarded.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, casaCase); err != nil {
			return err
		}
		return s.linkContactTypes(ctx, repo, orgID, casaCase.ID, req.ContactTypeIDs)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "casa_case.created", casaCase.ID, map[string]any{
		"case_number": casaCase.CaseNumber,
	})

	return s.detail(ctx, orgID, casaCase)
}

func (s *Service) Get(ctx context.Context, orgID snowflake.ID, actor domain.Actor, id snowflake.ID) (*domain.CaseDetail, error) {
	casaCase, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == orgdomain.RoleVolunteer {
		assigned, err := s.repo.IsAssigned(ctx, orgID, id, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, domain.ErrNotAuthorized
		}
	}

	return s.detail(ctx, orgID, casaCase)
}

func (s *Service) List(ctx context.Context, orgID snowflake.ID, actor domain.Actor) ([]domain.CasaCase, error) {
	if actor.Role == orgdomain.RoleVolunteer {
		return s.repo.ListAssigned(ctx, orgID, actor.UserID)
	}
	return s.repo.ListByOrg(ctx, orgID)
}

func (s *Service) Update(ctx context.Context, orgID snowflake.ID, actor domain.Actor, id snowflake.ID, req domain.UpdateCaseRequest) (*domain.UpdateResult, error) {
	casaCase, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == orgdomain.RoleVolunteer {
		assigned, err := s.repo.IsAssigned(ctx, orgID, id, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, domain.ErrCaseNotFound
		}
	}

	now := s.clock.Now()
	fields := map[string]any{}
	var changes domain.ChangeSet

	if req.CaseNumber != nil && domain.CanEdit(actor.Role, domain.AttrCaseNumber) {
		next := strings.TrimSpace(*req.CaseNumber)
		if next == "" {
			return nil, domain.ValidationErrors{msgCaseNumberBlank}
		}
		if next != casaCase.CaseNumber {
			if other, err := s.repo.FindByNumber(ctx, orgID, next); err == nil && other.ID != casaCase.ID {
				return nil, domain.ValidationErrors{msgCaseNumberTaken}
			} else if err != nil && !errors.Is(err, domain.ErrCaseNotFound) {
				return nil, err
			}
			fields["case_number"] = next
			changes.AddAttribute("Case number")
		}
	}

	if req.BirthMonthYearYouth != nil && domain.CanEdit(actor.Role, domain.AttrBirthMonthYearYouth) {
		if req.BirthMonthYearYouth.IsZero() {
			return nil, domain.ValidationErrors{msgBirthBlank}
		}
		next := req.BirthMonthYearYouth.UTC()
		if !next.Equal(casaCase.BirthMonthYearYouth) {
			fields["birth_month_year_youth"] = next
			changes.AddAttribute("Birth month year youth")
		}
	}

	if req.CourtReportStatus != nil && domain.CanEdit(actor.Role, domain.AttrCourtReportStatus) {
		next := strings.TrimSpace(*req.CourtReportStatus)
		if !domain.ValidCourtReportStatus(next) {
			return nil, domain.ValidationErrors{msgStatusInvalid}
		}
		if next != casaCase.CourtReportStatus {
			fields["court_report_status"] = next
			changes.AddAttribute("Court report status")
		}
	}

	var typesToAdd, typesToRemove []snowflake.ID
	if req.ContactTypeIDs != nil && domain.CanEdit(actor.Role, domain.AttrContactTypes) {
		typesToAdd, typesToRemove, err = s.diffContactTypes(ctx, orgID, casaCase.ID, *req.ContactTypeIDs)
		if err != nil {
			return nil, err
		}
		if len(typesToAdd) > 0 {
			added, err := s.contactTypes.FindTypesByIDs(ctx, orgID, typesToAdd)
			if err != nil {
				return nil, err
			}
			names := make([]string, 0, len(added))
			for _, t := range added {
				names = append(names, t.Name)
			}
			changes.AddContactTypes(names)
		}
	}

	var orderCreates []domain.CourtOrderInput
	var orderUpdates []domain.CaseCourtOrder
	if req.CourtOrders != nil && domain.CanEdit(actor.Role, domain.AttrCourtOrders) {
		existing, err := s.repo.ListOrders(ctx, orgID, casaCase.ID)
		if err != nil {
			return nil, err
		}
		orderCreates, orderUpdates = reconcileOrders(existing, *req.CourtOrders)
		changes.AddOrderChanges(len(orderCreates) + len(orderUpdates))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if len(fields) > 0 {
			fields["updated_at"] = now
			if err := repo.UpdateFields(ctx, orgID, casaCase.ID, fields); err != nil {
				return err
			}
		}
		if err := repo.RemoveContactTypes(ctx, casaCase.ID, typesToRemove); err != nil {
			return err
		}
		if err := s.linkContactTypes(ctx, repo, orgID, casaCase.ID, typesToAdd); err != nil {
			return err
		}
		for _, input := range orderCreates {
			order := &domain.CaseCourtOrder{
				ID:                   s.genID.Generate(),
				OrgID:                orgID,
				CasaCaseID:           casaCase.ID,
				Text:                 input.Text,
				ImplementationStatus: input.ImplementationStatus,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := repo.CreateOrder(ctx, order); err != nil {
				return err
			}
		}
		for i := range orderUpdates {
			orderUpdates[i].UpdatedAt = now
			if err := repo.UpdateOrder(ctx, &orderUpdates[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, "casa_case.updated", casaCase.ID, map[string]any{
		"case_number": casaCase.CaseNumber,
		"summary":     changes.BuildChangeSummary(),
	})

	refreshed, err := s.repo.FindByID(ctx, orgID, casaCase.ID)
	if err != nil {
		return nil, err
	}
	detail, err := s.detail(ctx, orgID, refreshed)
	if err != nil {
		return nil, err
	}
	return &domain.UpdateResult{
		Detail:  *detail,
		Summary: changes.BuildChangeSummary(),
	}, nil
}

func (s *Service) Deactivate(ctx context.Context, orgID snowflake.ID, actor domain.Actor, id snowflake.ID) (*domain.TransitionResult, error) {
	return s.transition(ctx, orgID, actor, id, false)
}

func (s *Service) Reactivate(ctx context.Context, orgID snowflake.ID, actor domain.Actor, id snowflake.ID) (*domain.TransitionResult, error) {
	return s.transition(ctx, orgID, actor, id, true)
}

func (s *Service) transition(ctx context.Context, orgID snowflake.ID, actor domain.Actor, id snowflake.ID, targetActive bool) (*domain.TransitionResult, error) {
	casaCase, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	verb := "deactivated"
	action := "casa_case.deactivated"
	if targetActive {
		verb = "reactivated"
		action = "casa_case.reactivated"
	}
	notice := fmt.Sprintf("Case %s has been %s.", casaCase.CaseNumber, verb)

	// Non-admin transition attempts succeed without changing state.
	if !domain.CanTransition(actor.Role) {
		return &domain.TransitionResult{CasaCase: *casaCase, Notice: notice, Changed: false}, nil
	}
	if casaCase.Active == targetActive {
		return &domain.TransitionResult{CasaCase: *casaCase, Notice: notice, Changed: false}, nil
	}

	if err := s.guard.Check(ctx, casaCase, targetActive); err != nil {
		var veto *domain.TransitionVetoError
		if errors.As(err, &veto) {
			return nil, veto
		}
		return nil, &domain.TransitionVetoError{Reason: err.Error()}
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).UpdateFields(ctx, orgID, casaCase.ID, map[string]any{
			"active":     targetActive,
			"updated_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, action, casaCase.ID, map[string]any{
		"case_number": casaCase.CaseNumber,
	})

	casaCase.Active = targetActive
	casaCase.UpdatedAt = now
	return &domain.TransitionResult{CasaCase: *casaCase, Notice: notice, Changed: true}, nil
}

func (s *Service) Assign(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID, volunteerUserID snowflake.ID) error {
	if _, err := s.repo.FindByID(ctx, orgID, caseID); err != nil {
		return err
	}
	return s.repo.UpsertAssignment(ctx, &domain.CaseAssignment{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		CasaCaseID:      caseID,
		VolunteerUserID: volunteerUserID,
		IsActive:        true,
		CreatedAt:       s.clock.Now(),
	})
}

func (s *Service) detail(ctx context.Context, orgID snowflake.ID, casaCase *domain.CasaCase) (*domain.CaseDetail, error) {
	orders, err := s.repo.ListOrders(ctx, orgID, casaCase.ID)
	if err != nil {
		return nil, err
	}
	typeIDs, err := s.repo.ListContactTypeIDs(ctx, casaCase.ID)
	if err != nil {
		return nil, err
	}
	return &domain.CaseDetail{
		CasaCase:            *casaCase,
		TransitionAgedYouth: casaCase.TransitionAgedYouth(s.clock.Now()),
		CourtOrders:         orders,
		ContactTypeIDs:      typeIDs,
	}, nil
}

// linkContactTypes attaches only contact types that exist in the org;
// unknown ids are dropped.
func (s *Service) linkContactTypes(ctx context.Context, repo domain.Repository, orgID snowflake.ID, caseID snowflake.ID, typeIDs []snowflake.ID) error {
	if len(typeIDs) == 0 {
		return nil
	}
	valid, err := s.contactTypes.FindTypesByIDs(ctx, orgID, typeIDs)
	if err != nil {
		return err
	}
	for _, t := range valid {
		link := &domain.CasaCaseContactType{
			ID:            s.genID.Generate(),
			CasaCaseID:    caseID,
			ContactTypeID: t.ID,
			CreatedAt:     s.clock.Now(),
		}
		if err := repo.AddContactType(ctx, link); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) diffContactTypes(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID, submitted []snowflake.ID) (toAdd []snowflake.ID, toRemove []snowflake.ID, err error) {
	current, err := s.repo.ListContactTypeIDs(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}

	currentSet := make(map[snowflake.ID]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	submittedSet := make(map[snowflake.ID]bool, len(submitted))
	for _, id := range submitted {
		submittedSet[id] = true
		if !currentSet[id] {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if !submittedSet[id] {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove, nil
}

func (s *Service) audit(ctx context.Context, orgID snowflake.ID, actor domain.Actor, action string, caseID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	actorID := actor.UserID.String()
	targetID := caseID.String()
	if err := s.auditSvc.AuditLog(ctx, &orgID, string(auditdomain.ActorTypeUser), &actorID, action, "casa_case", &targetID, metadata); err != nil {
		s.log.Warn("failed to audit case action", zap.String("action", action), zap.Error(err))
	}
}
