package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrCaseNotFound   = errors.New("case_not_found")
	ErrNotAuthorized  = errors.New("not_authorized")
	ErrDuplicateCase  = errors.New("duplicate_case_number")
	ErrInvalidRequest = errors.New("invalid_request")
)

// NoticeNotAuthorized is the user-facing text for a disallowed role action.
const NoticeNotAuthorized = "Sorry you are not authorized to perform this action."

// ValidationErrors is the flat ordered message list returned to clients
// with a 422.
type ValidationErrors []string

func (e ValidationErrors) Error() string {
	return strings.Join(e, ", ")
}

// TransitionVetoError wraps a guard veto. State is left unchanged and the
// client receives an empty 422 body.
type TransitionVetoError struct {
	Reason string
}

func (e *TransitionVetoError) Error() string {
	if e.Reason == "" {
		return "transition vetoed"
	}
	return e.Reason
}

// TransitionGuard may veto case lifecycle transitions. The default guard
// allows everything; deployments plug court-calendar or audit holds here.
type TransitionGuard interface {
	Check(ctx context.Context, casaCase *CasaCase, targetActive bool) error
}

// Actor identifies the requesting member within an organization.
type Actor struct {
	UserID snowflake.ID
	Role   string
}

// CourtOrderInput is one submitted court order row. A nil ID means create.
type CourtOrderInput struct {
	ID                   *snowflake.ID `json:"id,omitempty"`
	Text                 string        `json:"text"`
	ImplementationStatus *string       `json:"implementation_status,omitempty"`
}

type CreateCaseRequest struct {
	CaseNumber          string            `json:"case_number"`
	BirthMonthYearYouth *time.Time        `json:"birth_month_year_youth"`
	CourtReportStatus   string            `json:"court_report_status"`
	ContactTypeIDs      []snowflake.ID    `json:"contact_type_ids"`
	CourtOrders         []CourtOrderInput `json:"court_orders"`
}

// UpdateCaseRequest carries only the attributes the client submitted. Nil
// pointers mean "not submitted" and are left untouched.
type UpdateCaseRequest struct {
	CaseNumber          *string            `json:"case_number,omitempty"`
	BirthMonthYearYouth *time.Time         `json:"birth_month_year_youth,omitempty"`
	CourtReportStatus   *string            `json:"court_report_status,omitempty"`
	ContactTypeIDs      *[]snowflake.ID    `json:"contact_type_ids,omitempty"`
	CourtOrders         *[]CourtOrderInput `json:"court_orders,omitempty"`
}

// CaseDetail is the full case view with its orders and contact types.
type CaseDetail struct {
	CasaCase            CasaCase         `json:"casa_case"`
	TransitionAgedYouth bool             `json:"transition_aged_youth"`
	CourtOrders         []CaseCourtOrder `json:"court_orders"`
	ContactTypeIDs      []snowflake.ID   `json:"contact_type_ids"`
}

// UpdateResult carries the refreshed detail plus the rendered change notice.
type UpdateResult struct {
	Detail  CaseDetail `json:"detail"`
	Summary string     `json:"summary"`
}

// TransitionResult reports a lifecycle change.
type TransitionResult struct {
	CasaCase CasaCase `json:"casa_case"`
	Notice   string   `json:"notice"`
	Changed  bool     `json:"changed"`
}

type Service interface {
	Create(ctx context.Context, orgID snowflake.ID, actor Actor, req CreateCaseRequest) (*CaseDetail, error)
	Get(ctx context.Context, orgID snowflake.ID, actor Actor, id snowflake.ID) (*CaseDetail, error)
	List(ctx context.Context, orgID snowflake.ID, actor Actor) ([]CasaCase, error)
	Update(ctx context.Context, orgID snowflake.ID, actor Actor, id snowflake.ID, req UpdateCaseRequest) (*UpdateResult, error)
	Deactivate(ctx context.Context, orgID snowflake.ID, actor Actor, id snowflake.ID) (*TransitionResult, error)
	Reactivate(ctx context.Context, orgID snowflake.ID, actor Actor, id snowflake.ID) (*TransitionResult, error)
	Assign(ctx context.Context, orgID snowflake.ID, caseID snowflake.ID, volunteerUserID snowflake.ID) error
}
