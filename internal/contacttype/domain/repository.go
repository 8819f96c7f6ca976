package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateGroup(ctx context.Context, group *ContactTypeGroup) error
	CreateType(ctx context.Context, contactType *ContactType) error
	FindGroup(ctx context.Context, orgID snowflake.ID, groupID snowflake.ID) (*ContactTypeGroup, error)
	ListGroups(ctx context.Context, orgID snowflake.ID) ([]ContactTypeGroup, error)
	ListTypes(ctx context.Context, orgID snowflake.ID) ([]ContactType, error)
	FindTypesByIDs(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]ContactType, error)
	ListTypeIDsByGroupIDs(ctx context.Context, orgID snowflake.ID, groupIDs []snowflake.ID) ([]snowflake.ID, error)
}
