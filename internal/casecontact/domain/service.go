package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrContactNotFound = errors.New("contact_not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
)

// Validation messages follow the flat 422 vocabulary of the case endpoints.
const (
	MsgOccurredAtBlank = "Occurred at can't be blank"
	MsgDurationInvalid = "Duration minutes must be greater than 0"
	MsgMediumInvalid   = "Medium is not included in the list"
	MsgTitleBlank      = "Title can't be blank"
)

// ValidationErrors is the flat ordered message list returned with a 422.
type ValidationErrors []string

func (e ValidationErrors) Error() string {
	return strings.Join(e, ", ")
}

type CreateContactRequest struct {
	CasaCaseID               snowflake.ID   `json:"casa_case_id"`
	OccurredAt               *time.Time     `json:"occurred_at"`
	DurationMinutes          int            `json:"duration_minutes"`
	ContactMade              bool           `json:"contact_made"`
	Medium                   string         `json:"medium"`
	MilesDriven              int            `json:"miles_driven"`
	WantDrivingReimbursement bool           `json:"want_driving_reimbursement"`
	Notes                    string         `json:"notes"`
	ContactTypeIDs           []snowflake.ID `json:"contact_type_ids"`
}

type CreateOtherDutyRequest struct {
	OccurredAt      *time.Time `json:"occurred_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Notes           string     `json:"notes"`
}

type CreateLearningHourRequest struct {
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	OccurredAt      *time.Time `json:"occurred_at"`
}

// ContactWithTypes is a contact plus the names of its contact types.
type ContactWithTypes struct {
	Contact      CaseContact `json:"contact"`
	ContactTypes []string    `json:"contact_types"`
}

type Service interface {
	CreateContact(ctx context.Context, orgID snowflake.ID, creatorUserID snowflake.ID, req CreateContactRequest) (*CaseContact, error)
	ListContactsForCase(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID) ([]ContactWithTypes, error)
	CreateOtherDuty(ctx context.Context, orgID snowflake.ID, creatorUserID snowflake.ID, req CreateOtherDutyRequest) (*OtherDuty, error)
	ListOtherDuties(ctx context.Context, orgID snowflake.ID, creatorUserID snowflake.ID) ([]OtherDuty, error)
	CreateLearningHour(ctx context.Context, orgID snowflake.ID, userID snowflake.ID, req CreateLearningHourRequest) (*LearningHour, error)
}
