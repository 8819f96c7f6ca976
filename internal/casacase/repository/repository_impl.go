package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/casacase/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) WithTx(tx *gorm.DB) domain.Repository {
	return &repo{db: tx}
}

func (r *repo) Create(ctx context.Context, casaCase *domain.CasaCase) error {
	return r.db.WithContext(ctx).Create(casaCase).Error
}

func (r *repo) FindByID(ctx context.Context, orgID snowflake.ID, id snowflake.ID) (*domain.CasaCase, error) {
	var casaCase domain.CasaCase
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&casaCase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &casaCase, nil
}

func (r *repo) FindByNumber(ctx context.Context, orgID snowflake.ID, caseNumber string) (*domain.CasaCase, error) {
	var casaCase domain.CasaCase
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND case_number = ?", orgID, caseNumber).
		First(&casaCase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &casaCase, nil
}

func (r *repo) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]domain.CasaCase, error) {
	var cases []domain.CasaCase
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("case_number asc").
		Find(&cases).Error
	return cases, err
}

func (r *repo) ListAssigned(ctx context.Context, orgID snowflake.ID, volunteerUserID snowflake.ID) ([]domain.CasaCase, error) {
	var cases []domain.CasaCase
	err := r.db.WithContext(ctx).
		Raw(`SELECT cc.*
		 FROM casa_cases cc
		 JOIN case_assignments ca ON ca.casa_case_id = cc.id
		 WHERE cc.org_id = ?
		   AND ca.volunteer_user_id = ?
		   AND ca.is_active
		 ORDER BY cc.case_number ASC`,
			orgID,
			volunteerUserID,
		).Scan(&cases).Error
	return cases, err
}

func (r *repo) UpdateFields(ctx context.Context, orgID snowflake.ID, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.CasaCase{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrCaseNotFound
	}
	return nil
}

func (r *repo) CreateOrder(ctx context.Context, order *domain.CaseCourtOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repo) UpdateOrder(ctx context.Context, order *domain.CaseCourtOrder) error {
	return r.db.WithContext(ctx).
		Model(&domain.CaseCourtOrder{}).
		Where("id = ? AND casa_case_id = ?", order.ID, order.CasaCaseID).
		Updates(map[string]any{
			"text":                  order.Text,
			"implementation_status": order.ImplementationStatus,
			"updated_at":            order.UpdatedAt,
		}).Error
}

func (r *repo) ListOrders(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID) ([]domain.CaseCourtOrder, error) {
	var orders []domain.CaseCourtOrder
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND casa_case_id = ?", orgID, caseID).
		Order("id asc").
		Find(&orders).Error
	return orders, err
}

func (r *repo) ListContactTypeIDs(ctx context.Context, caseID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Model(&domain.CasaCaseContactType{}).
		Where("casa_case_id = ?", caseID).
		Pluck("contact_type_id", &ids).Error
	return ids, err
}

func (r *repo) AddContactType(ctx context.Context, link *domain.CasaCaseContactType) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error
}

func (r *repo) RemoveContactTypes(ctx context.Context, caseID snowflake.ID, contactTypeIDs []snowflake.ID) error {
	if len(contactTypeIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("casa_case_id = ? AND contact_type_id IN ?", caseID, contactTypeIDs).
		Delete(&domain.CasaCaseContactType{}).Error
}

func (r *repo) UpsertAssignment(ctx context.Context, assignment *domain.CaseAssignment) error {
	var existing domain.CaseAssignment
	err := r.db.WithContext(ctx).
		Where("casa_case_id = ? AND volunteer_user_id = ?", assignment.CasaCaseID, assignment.VolunteerUserID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(assignment).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&domain.CaseAssignment{}).
		Where("id = ?", existing.ID).
		Update("is_active", assignment.IsActive).Error
}

func (r *repo) IsAssigned(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID, volunteerUserID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.CaseAssignment{}).
		Where("org_id = ? AND casa_case_id = ? AND volunteer_user_id = ? AND is_active", orgID, caseID, volunteerUserID).
		Count(&count).Error
	return count > 0, err
}
