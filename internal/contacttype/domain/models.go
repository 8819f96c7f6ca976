// Package domain contains the contact type taxonomy shared by cases and
// case contacts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ContactTypeGroup is an org-defined bucket of contact types, e.g.
// "Family" or "Placement".
type ContactTypeGroup struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"column:org_id;not null;uniqueIndex:ux_contact_type_groups_org_name,priority:1" json:"org_id"`
	Name      string       `gorm:"column:name;type:text;not null;uniqueIndex:ux_contact_type_groups_org_name,priority:2" json:"name"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ContactTypeGroup) TableName() string { return "contact_type_groups" }

// ContactType is a single selectable contact type within a group.
type ContactType struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"column:org_id;not null;index" json:"org_id"`
	GroupID   snowflake.ID `gorm:"column:group_id;not null;uniqueIndex:ux_contact_types_group_name,priority:1" json:"group_id"`
	Name      string       `gorm:"column:name;type:text;not null;uniqueIndex:ux_contact_types_group_name,priority:2" json:"name"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ContactType) TableName() string { return "contact_types" }
