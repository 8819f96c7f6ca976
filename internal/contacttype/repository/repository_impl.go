package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/contacttype/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) CreateGroup(ctx context.Context, group *domain.ContactTypeGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *repo) CreateType(ctx context.Context, contactType *domain.ContactType) error {
	return r.db.WithContext(ctx).Create(contactType).Error
}

func (r *repo) FindGroup(ctx context.Context, orgID snowflake.ID, groupID snowflake.ID) (*domain.ContactTypeGroup, error) {
	var group domain.ContactTypeGroup
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, groupID).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repo) ListGroups(ctx context.Context, orgID snowflake.ID) ([]domain.ContactTypeGroup, error) {
	var groups []domain.ContactTypeGroup
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name asc").
		Find(&groups).Error
	return groups, err
}

func (r *repo) ListTypes(ctx context.Context, orgID snowflake.ID) ([]domain.ContactType, error) {
	var types []domain.ContactType
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name asc").
		Find(&types).Error
	return types, err
}

func (r *repo) FindTypesByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]domain.ContactType, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var types []domain.ContactType
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Order("name asc").
		Find(&types).Error
	return types, err
}

func (r *repo) ListTypeIDsByGroupIDs(ctx context.Context, orgID snowflake.ID, groupIDs []snowflake.ID) ([]snowflake.ID, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Model(&domain.ContactType{}).
		Where("org_id = ? AND group_id IN ?", orgID, groupIDs).
		Pluck("id", &ids).Error
	return ids, err
}
