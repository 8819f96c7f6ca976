package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type OrganizationListItem struct {
	ID        snowflake.ID
	Name      string
	Role      string
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	AddMember(ctx context.Context, member OrganizationMember) error
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListItem, error)
	IsMember(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (bool, error)
	RoleOfMember(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (string, error)
	UpsertSupervisorVolunteer(ctx context.Context, link SupervisorVolunteer) error
	SupervisorOfVolunteer(ctx context.Context, orgID snowflake.ID, volunteerUserID snowflake.ID) (*snowflake.ID, error)
	ListVolunteerIDsBySupervisor(ctx context.Context, orgID snowflake.ID, supervisorUserID snowflake.ID) ([]snowflake.ID, error)
}
