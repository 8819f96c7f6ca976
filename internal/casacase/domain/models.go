// Package domain contains core types for CASA case management.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	CourtReportNotSubmitted = "not_submitted"
	CourtReportSubmitted    = "submitted"
	CourtReportCompleted    = "completed"
)

// ValidCourtReportStatus reports whether status is a known court report state.
func ValidCourtReportStatus(status string) bool {
	switch status {
	case CourtReportNotSubmitted, CourtReportSubmitted, CourtReportCompleted:
		return true
	default:
		return false
	}
}

const (
	ImplementationNotImplemented       = "not_implemented"
	ImplementationPartiallyImplemented = "partially_implemented"
	ImplementationImplemented          = "implemented"
)

// ValidImplementationStatus reports whether status is a known court order
// implementation state. A nil status is always valid.
func ValidImplementationStatus(status *string) bool {
	if status == nil {
		return true
	}
	switch *status {
	case ImplementationNotImplemented, ImplementationPartiallyImplemented, ImplementationImplemented:
		return true
	default:
		return false
	}
}

// Youth this many years past their birth month are considered transition
// aged for reporting purposes.
const transitionAgedYears = 14

// CasaCase is a single youth case within an organization.
type CasaCase struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID               snowflake.ID `gorm:"column:org_id;not null;uniqueIndex:ux_casa_cases_org_number,priority:1" json:"org_id"`
	CaseNumber          string       `gorm:"column:case_number;type:text;not null;uniqueIndex:ux_casa_cases_org_number,priority:2" json:"case_number"`
	BirthMonthYearYouth time.Time    `gorm:"column:birth_month_year_youth;not null" json:"birth_month_year_youth"`
	Active              bool         `gorm:"column:active;not null;default:true" json:"active"`
	CourtReportStatus   string       `gorm:"column:court_report_status;type:text;not null;default:'not_submitted'" json:"court_report_status"`
	CreatedAt           time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CasaCase) TableName() string { return "casa_cases" }

// TransitionAgedYouth reports whether the youth's birth month-year is at
// least fourteen years before now.
func (c CasaCase) TransitionAgedYouth(now time.Time) bool {
	cutoff := now.AddDate(-transitionAgedYears, 0, 0)
	birth := time.Date(c.BirthMonthYearYouth.Year(), c.BirthMonthYearYouth.Month(), 1, 0, 0, 0, 0, time.UTC)
	return !birth.After(time.Date(cutoff.Year(), cutoff.Month(), 1, 0, 0, 0, 0, time.UTC))
}

// CaseCourtOrder is a court-mandated directive attached to a case. Text is
// never blank once persisted.
type CaseCourtOrder struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID                snowflake.ID `gorm:"column:org_id;not null;index" json:"org_id"`
	CasaCaseID           snowflake.ID `gorm:"column:casa_case_id;not null;index" json:"casa_case_id"`
	Text                 string       `gorm:"column:text;type:text;not null" json:"text"`
	ImplementationStatus *string      `gorm:"column:implementation_status;type:text" json:"implementation_status,omitempty"`
	CreatedAt            time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time    `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CaseCourtOrder) TableName() string { return "case_court_orders" }

// CasaCaseContactType joins a case to the contact types expected on it.
type CasaCaseContactType struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	CasaCaseID    snowflake.ID `gorm:"column:casa_case_id;not null;uniqueIndex:ux_casa_case_contact_types,priority:1" json:"casa_case_id"`
	ContactTypeID snowflake.ID `gorm:"column:contact_type_id;not null;uniqueIndex:ux_casa_case_contact_types,priority:2" json:"contact_type_id"`
	CreatedAt     time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CasaCaseContactType) TableName() string { return "casa_case_contact_types" }

// CaseAssignment links a volunteer to a case.
type CaseAssignment struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID `gorm:"column:org_id;not null;index" json:"org_id"`
	CasaCaseID      snowflake.ID `gorm:"column:casa_case_id;not null;uniqueIndex:ux_case_assignments,priority:1" json:"casa_case_id"`
	VolunteerUserID snowflake.ID `gorm:"column:volunteer_user_id;not null;uniqueIndex:ux_case_assignments,priority:2" json:"volunteer_user_id"`
	IsActive        bool         `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt       time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CaseAssignment) TableName() string { return "case_assignments" }
