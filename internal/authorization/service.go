// Package authorization enforces org-scoped role policies with Casbin.
package authorization

import (
	"context"
	"errors"
)

var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidActor        = errors.New("invalid actor")
	ErrInvalidOrganization = errors.New("invalid organization")
	ErrInvalidObject       = errors.New("invalid object")
	ErrInvalidAction       = errors.New("invalid action")
)

type Service interface {
	// Authorize checks whether actor may perform action on object within
	// the given organization. Actor is either "system" or "user:<id>".
	Authorize(ctx context.Context, actor string, orgID string, object string, action string) error
}
