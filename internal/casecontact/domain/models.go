// Package domain contains contact logging types: case contacts, other
// duties and learning hours.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	MediumInPerson  = "in-person"
	MediumTextEmail = "text/email"
	MediumVideo     = "video"
	MediumVoiceOnly = "voice-only"
	MediumLetter    = "letter"
)

// ValidMedium reports whether medium is a known contact medium. Empty is
// allowed; the missing-data report surfaces it later.
func ValidMedium(medium string) bool {
	switch medium {
	case "", MediumInPerson, MediumTextEmail, MediumVideo, MediumVoiceOnly, MediumLetter:
		return true
	default:
		return false
	}
}

// CaseContact is one logged interaction between a volunteer and a case.
type CaseContact struct {
	ID                       snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID                    snowflake.ID `gorm:"column:org_id;not null;index" json:"org_id"`
	CasaCaseID               snowflake.ID `gorm:"column:casa_case_id;not null;index" json:"casa_case_id"`
	CreatorUserID            snowflake.ID `gorm:"column:creator_user_id;not null;index" json:"creator_user_id"`
	OccurredAt               time.Time    `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	DurationMinutes          int          `gorm:"column:duration_minutes;not null" json:"duration_minutes"`
	ContactMade              bool         `gorm:"column:contact_made;not null;default:true" json:"contact_made"`
	Medium                   string       `gorm:"column:medium;type:text" json:"medium"`
	MilesDriven              int          `gorm:"column:miles_driven;not null;default:0" json:"miles_driven"`
	WantDrivingReimbursement bool         `gorm:"column:want_driving_reimbursement;not null;default:false" json:"want_driving_reimbursement"`
	Notes                    string       `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt                time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CaseContact) TableName() string { return "case_contacts" }

// CaseContactContactType joins a contact to the contact types it covered.
type CaseContactContactType struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	CaseContactID snowflake.ID `gorm:"column:case_contact_id;not null;uniqueIndex:ux_case_contact_contact_types,priority:1" json:"case_contact_id"`
	ContactTypeID snowflake.ID `gorm:"column:contact_type_id;not null;uniqueIndex:ux_case_contact_contact_types,priority:2" json:"contact_type_id"`
}

// TableName sets the database table name.
func (CaseContactContactType) TableName() string { return "case_contact_contact_types" }

// OtherDuty is non-case volunteer work shown on the volunteer case index.
type OtherDuty struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID `gorm:"column:org_id;not null;index" json:"org_id"`
	CreatorUserID   snowflake.ID `gorm:"column:creator_user_id;not null;index" json:"creator_user_id"`
	OccurredAt      time.Time    `gorm:"column:occurred_at;not null" json:"occurred_at"`
	DurationMinutes int          `gorm:"column:duration_minutes;not null" json:"duration_minutes"`
	Notes           string       `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt       time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OtherDuty) TableName() string { return "other_duties" }

// LearningHour is recorded volunteer training time.
type LearningHour struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID `gorm:"column:org_id;not null;index" json:"org_id"`
	UserID          snowflake.ID `gorm:"column:user_id;not null;index" json:"user_id"`
	Title           string       `gorm:"column:title;type:text;not null" json:"title"`
	DurationMinutes int          `gorm:"column:duration_minutes;not null" json:"duration_minutes"`
	OccurredAt      time.Time    `gorm:"column:occurred_at;not null" json:"occurred_at"`
	CreatedAt       time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LearningHour) TableName() string { return "learning_hours" }
