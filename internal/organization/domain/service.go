package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin      = "admin"      // Full case management, lifecycle, reports
	RoleSupervisor = "supervisor" // Case updates, reports, assigned volunteers
	RoleVolunteer  = "volunteer"  // Assigned cases only, court report status
)

// ValidRole reports whether role is one of the known membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSupervisor, RoleVolunteer:
		return true
	default:
		return false
	}
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*OrganizationResponse, error)
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListResponseItem, error)
	AddMember(ctx context.Context, orgID snowflake.ID, userID snowflake.ID, role string) error
	AssignSupervisor(ctx context.Context, orgID snowflake.ID, supervisorUserID snowflake.ID, volunteerUserID snowflake.ID) error
}

type CreateOrganizationRequest struct {
	Name string
}

type OrganizationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type OrganizationListResponseItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrNotMember           = errors.New("not_member")
	ErrForbidden           = errors.New("forbidden")
)
