// Package seed bootstraps the default organization, admin account and
// starter contact type taxonomy for self-hosted installs.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/advocase/internal/auth/domain"
	"github.com/smallbiznis/advocase/internal/auth/password"
	ctdomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	organizationdomain "github.com/smallbiznis/advocase/internal/organization/domain"
	"gorm.io/gorm"
)

const (
	defaultOrgName       = "Main"
	defaultOrgSlug       = "main"
	defaultAdminEmail    = "admin@advocase.local"
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "Advocase Admin"
)

// defaultContactTypes is the starter taxonomy a fresh organization gets.
// Admins can extend it later; groups are matched by name so re-running
// the seed never duplicates rows.
var defaultContactTypes = map[string][]string{
	"Family":          {"Youth", "Parent", "Sibling", "Other Family"},
	"Placement":       {"Foster Parent", "Group Home", "Caregiver"},
	"Social Services": {"Social Worker", "Therapist"},
	"Legal":           {"Attorney", "Court", "Judge"},
	"Education":       {"School", "Teacher", "Guidance Counselor"},
	"Health":          {"Medical Professional"},
}

// EnsureMainOrg seeds the default organization for startup bootstrap.
func EnsureMainOrg(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureMainOrgTx(ctx, tx, node)
		if err != nil {
			return err
		}
		return ensureContactTypesTx(ctx, tx, node, org.ID)
	})
}

// EnsureMainOrgWithID seeds the default organization under a fixed
// identifier. Cloud installs pin the control-plane org this way so the
// id is stable across environments.
func EnsureMainOrgWithID(db *gorm.DB, orgID int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if orgID == 0 {
		return errors.New("seed org id is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org organizationdomain.Organization
		err := tx.WithContext(ctx).Where("id = ?", orgID).First(&org).Error
		if err == nil {
			return ensureContactTypesTx(ctx, tx, node, org.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := time.Now().UTC()
		org = organizationdomain.Organization{
			ID:        snowflake.ID(orgID),
			Name:      defaultOrgName,
			Slug:      defaultOrgSlug,
			IsDefault: true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
			return err
		}
		return ensureContactTypesTx(ctx, tx, node, org.ID)
	})
}

// EnsureMainOrgAndAdmin seeds the default organization and admin user for OSS mode.
func EnsureMainOrgAndAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureMainOrgTx(ctx, tx, node)
		if err != nil {
			return err
		}

		var user authdomain.User
		err = tx.WithContext(ctx).
			Where("provider = ? AND external_id = ?", "local", defaultAdminEmail).
			First(&user).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hashed, err := password.Hash(defaultAdminPassword)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			user = authdomain.User{
				ID:           node.Generate(),
				ExternalID:   defaultAdminEmail,
				Provider:     "local",
				DisplayName:  defaultAdminDisplay,
				Email:        strings.ToLower(defaultAdminEmail),
				PasswordHash: &hashed,
				IsDefault:    true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
				return err
			}
		}

		var member organizationdomain.OrganizationMember
		err = tx.WithContext(ctx).
			Where("org_id = ? AND user_id = ?", org.ID, user.ID).
			First(&member).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			member = organizationdomain.OrganizationMember{
				ID:        node.Generate(),
				OrgID:     org.ID,
				UserID:    user.ID,
				Role:      organizationdomain.RoleAdmin,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.WithContext(ctx).Create(&member).Error; err != nil {
				return err
			}
		}

		return ensureContactTypesTx(ctx, tx, node, org.ID)
	})
}

func ensureMainOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.WithContext(ctx).Where("slug = ?", defaultOrgSlug).First(&org).Error
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return org, err
	}
	now := time.Now().UTC()
	org = organizationdomain.Organization{
		ID:        node.Generate(),
		Name:      defaultOrgName,
		Slug:      defaultOrgSlug,
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return org, err
	}
	return org, nil
}

func ensureContactTypesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	for groupName, typeNames := range defaultContactTypes {
		var group ctdomain.ContactTypeGroup
		err := tx.WithContext(ctx).
			Where("org_id = ? AND name = ?", orgID, groupName).
			First(&group).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			group = ctdomain.ContactTypeGroup{
				ID:        node.Generate(),
				OrgID:     orgID,
				Name:      groupName,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.WithContext(ctx).Create(&group).Error; err != nil {
				return err
			}
		}

		for _, typeName := range typeNames {
			var ct ctdomain.ContactType
			err := tx.WithContext(ctx).
				Where("group_id = ? AND name = ?", group.ID, typeName).
				First(&ct).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			ct = ctdomain.ContactType{
				ID:        node.Generate(),
				OrgID:     orgID,
				GroupID:   group.ID,
				Name:      typeName,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.WithContext(ctx).Create(&ct).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
