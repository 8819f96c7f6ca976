package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateOrganization(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organizations (id, name, slug, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.Slug,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repository) AddMember(ctx context.Context, member domain.OrganizationMember) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organization_members (id, org_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		member.ID,
		member.OrgID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	).Error
}

func (r *repository) ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationListItem, error) {
	var items []domain.OrganizationListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT o.id, o.name, m.role, o.created_at
		 FROM organizations o
		 JOIN organization_members m ON m.org_id = o.id
		 WHERE m.user_id = ?
		 ORDER BY o.created_at ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) IsMember(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM organization_members
		 WHERE org_id = ? AND user_id = ?`,
		orgID,
		userID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) RoleOfMember(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM organization_members
		 WHERE org_id = ? AND user_id = ?
		 LIMIT 1`,
		orgID,
		userID,
	).Scan(&row).Error
	if err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", domain.ErrNotMember
	}
	return role, nil
}

func (r *repository) UpsertSupervisorVolunteer(ctx context.Context, link domain.SupervisorVolunteer) error {
	var existing domain.SupervisorVolunteer
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND volunteer_user_id = ?", link.OrgID, link.VolunteerUserID).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.db.WithContext(ctx).Create(&link).Error
	}

	return r.db.WithContext(ctx).
		Model(&domain.SupervisorVolunteer{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"supervisor_user_id": link.SupervisorUserID,
			"is_active":          true,
		}).Error
}

func (r *repository) SupervisorOfVolunteer(ctx context.Context, orgID snowflake.ID, volunteerUserID snowflake.ID) (*snowflake.ID, error) {
	var link domain.SupervisorVolunteer
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND volunteer_user_id = ? AND is_active", orgID, volunteerUserID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link.SupervisorUserID, nil
}

func (r *repository) ListVolunteerIDsBySupervisor(ctx context.Context, orgID snowflake.ID, supervisorUserID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).Raw(
		`SELECT volunteer_user_id
		 FROM supervisor_volunteers
		 WHERE org_id = ? AND supervisor_user_id = ? AND is_active`,
		orgID,
		supervisorUserID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
