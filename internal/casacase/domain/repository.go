package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, casaCase *CasaCase) error
	FindByID(ctx context.Context, orgID snowflake.ID, id snowflake.ID) (*CasaCase, error)
	FindByNumber(ctx context.Context, orgID snowflake.ID, caseNumber string) (*CasaCase, error)
	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]CasaCase, error)
	ListAssigned(ctx context.Context, orgID snowflake.ID, volunteerUserID snowflake.ID) ([]CasaCase, error)
	UpdateFields(ctx context.Context, orgID snowflake.ID, id snowflake.ID, fields map[string]any) error

	CreateOrder(ctx context.Context, order *CaseCourtOrder) error
	UpdateOrder(ctx context.Context, order *CaseCourtOrder) error
	ListOrders(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID) ([]CaseCourtOrder, error)

	ListContactTypeIDs(ctx context.Context, caseID snowflake.ID) ([]snowflake.ID, error)
	AddContactType(ctx context.Context, link *CasaCaseContactType) error
	RemoveContactTypes(ctx context.Context, caseID snowflake.ID, contactTypeIDs []snowflake.ID) error

	UpsertAssignment(ctx context.Context, assignment *CaseAssignment) error
	IsAssigned(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID, volunteerUserID snowflake.ID) (bool, error)
}
