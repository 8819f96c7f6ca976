package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/casecontact/domain"
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

func (r *repo) CreateContact(ctx context.Context, contact *domain.CaseContact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *repo) ListContactsByCase(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID) ([]domain.CaseContact, error) {
	var contacts []domain.CaseContact
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND casa_case_id = ?", orgID, caseID).
		Order("occurred_at desc, id desc").
		Find(&contacts).Error
	return contacts, err
}

func (r *repo) AddContactType(ctx context.Context, link *domain.CaseContactContactType) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error
}

func (r *repo) ListContactTypeIDs(ctx context.Context, contactID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Model(&domain.CaseContactContactType{}).
		Where("case_contact_id = ?", contactID).
		Pluck("contact_type_id", &ids).Error
	return ids, err
}

func (r *repo) CreateOtherDuty(ctx context.Context, duty *domain.OtherDuty) error {
	return r.db.WithContext(ctx).Create(duty).Error
}

func (r *repo) ListOtherDuties(ctx context.Context, orgID snowflake.ID, creatorUserID snowflake.ID) ([]domain.OtherDuty, error) {
	var duties []domain.OtherDuty
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND creator_user_id = ?", orgID, creatorUserID).
		Order("occurred_at desc").
		Find(&duties).Error
	return duties, err
}

func (r *repo) CreateLearningHour(ctx context.Context, hour *domain.LearningHour) error {
	return r.db.WithContext(ctx).Create(hour).Error
}

func (r *repo) ListLearningHours(ctx context.Context, orgID snowflake.ID) ([]domain.LearningHour, error) {
	var hours []domain.LearningHour
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("occurred_at desc").
		Find(&hours).Error
	return hours, err
}
