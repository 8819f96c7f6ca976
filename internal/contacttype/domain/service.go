package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrGroupNotFound       = errors.New("group_not_found")
	ErrContactTypeNotFound = errors.New("contact_type_not_found")
)

type Service interface {
	CreateGroup(ctx context.Context, orgID snowflake.ID, name string) (*ContactTypeGroup, error)
	CreateType(ctx context.Context, orgID snowflake.ID, groupID snowflake.ID, name string) (*ContactType, error)
	ListGroups(ctx context.Context, orgID snowflake.ID) ([]GroupWithTypes, error)
}

// GroupWithTypes is the filter metadata shape served to report screens.
type GroupWithTypes struct {
	Group ContactTypeGroup `json:"group"`
	Types []ContactType    `json:"types"`
}
