package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateContact(ctx context.Context, contact *CaseContact) error
	ListContactsByCase(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID) ([]CaseContact, error)
	AddContactType(ctx context.Context, link *CaseContactContactType) error
	ListContactTypeIDs(ctx context.Context, contactID snowflake.ID) ([]snowflake.ID, error)

	CreateOtherDuty(ctx context.Context, duty *OtherDuty) error
	ListOtherDuties(ctx context.Context, orgID snowflake.ID, creatorUserID snowflake.ID) ([]OtherDuty, error)

	CreateLearningHour(ctx context.Context, hour *LearningHour) error
	ListLearningHours(ctx context.Context, orgID snowflake.ID) ([]LearningHour, error)
}
