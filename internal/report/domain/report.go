// Package domain contains the report query and export types.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidDateRange    = errors.New("invalid_date_range")
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// CaseContactHeaders is the exact export header row, in order.
var CaseContactHeaders = []string{
	"Internal Contact Number",
	"Duration Minutes",
	"Contact Types",
	"Contact Made",
	"Contact Medium",
	"Occurred At",
	"Added To System At",
	"Miles Driven",
	"Wants Driving Reimbursement",
	"Casa Case Number",
	"Creator Email",
	"Creator Name",
	"Supervisor Name",
	"Case Contact Notes",
}

// Filter selects case contacts for export. Type and group selections are
// OR-matched; groups expand transitively to their types. With neither
// selected only the date window applies.
type Filter struct {
	StartDate           *time.Time
	EndDate             *time.Time
	ContactTypeIDs      []snowflake.ID
	ContactTypeGroupIDs []snowflake.ID
	CasaCaseID          *snowflake.ID
}

// CaseContactRow is one fully-joined export row.
type CaseContactRow struct {
	ContactID                snowflake.ID
	DurationMinutes          int
	ContactTypes             []string
	ContactMade              bool
	Medium                   string
	OccurredAt               time.Time
	CreatedAt                time.Time
	MilesDriven              int
	WantDrivingReimbursement bool
	CaseNumber               string
	CreatorEmail             string
	CreatorName              string
	SupervisorName           string
	Notes                    string
}

// MileageRow aggregates reimbursable miles per creator.
type MileageRow struct {
	CreatorName  string
	CreatorEmail string
	TotalMiles   int
}

// MissingDataRow flags a contact lacking medium or notes.
type MissingDataRow struct {
	ContactID   snowflake.ID
	CaseNumber  string
	CreatorName string
	OccurredAt  time.Time
	Missing     []string
}

// LearningHourRow is one training entry with its owner resolved.
type LearningHourRow struct {
	UserName        string
	UserEmail       string
	Title           string
	DurationMinutes int
	OccurredAt      time.Time
}

// Export is a rendered report ready to stream to the client.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Service interface {
	CaseContacts(ctx context.Context, orgID snowflake.ID, filter Filter, format string) (*Export, error)
	Mileage(ctx context.Context, orgID snowflake.ID) (*Export, error)
	MissingData(ctx context.Context, orgID snowflake.ID) (*Export, error)
	LearningHours(ctx context.Context, orgID snowflake.ID) (*Export, error)
}

type Repository interface {
	QueryCaseContacts(ctx context.Context, orgID snowflake.ID, from time.Time, to time.Time, contactTypeIDs []snowflake.ID, casaCaseID *snowflake.ID, limit int) ([]CaseContactRow, error)
	ContactTypeNames(ctx context.Context, contactIDs []snowflake.ID) (map[snowflake.ID][]string, error)
	QueryMileage(ctx context.Context, orgID snowflake.ID) ([]MileageRow, error)
	QueryMissingData(ctx context.Context, orgID snowflake.ID) ([]MissingDataRow, error)
	QueryLearningHours(ctx context.Context, orgID snowflake.ID) ([]LearningHourRow, error)
}
