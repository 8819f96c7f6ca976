package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	casacasedomain "github.com/smallbiznis/advocase/internal/casacase/domain"
	casecontactdomain "github.com/smallbiznis/advocase/internal/casecontact/domain"
)

type createCaseContactRequest struct {
	OccurredAt               string   `json:"occurred_at"`
	DurationMinutes          int      `json:"duration_minutes"`
	ContactMade              bool     `json:"contact_made"`
	Medium                   string   `json:"medium"`
	MilesDriven              int      `json:"miles_driven"`
	WantDrivingReimbursement bool     `json:"want_driving_reimbursement"`
	Notes                    string   `json:"notes"`
	ContactTypeIDs           []string `json:"contact_type_ids"`
}

func (s *Server) ListCaseContacts(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	actor, ok := s.requestActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	caseID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || caseID == 0 {
		AbortWithError(c, casacasedomain.ErrCaseNotFound)
		return
	}

	// Visibility follows the case itself.
	if _, err := s.casaCaseSvc.Get(c.Request.Context(), orgID, actor, caseID); err != nil {
		AbortWithError(c, err)
		return
	}

	contacts, err := s.caseContactSvc.ListContactsForCase(c.Request.Context(), orgID, caseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case_contacts": contacts})
}

func (s *Server) CreateCaseContact(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	actor, ok := s.requestActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	caseID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || caseID == 0 {
		AbortWithError(c, casacasedomain.ErrCaseNotFound)
		return
	}

	if _, err := s.casaCaseSvc.Get(c.Request.Context(), orgID, actor, caseID); err != nil {
		AbortWithError(c, err)
		return
	}

	var req createCaseContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	occurredAt, err := parseOptionalTime(req.OccurredAt, false)
	if err != nil {
		AbortWithError(c, casecontactdomain.ValidationErrors{casecontactdomain.MsgOccurredAtBlank})
		return
	}
	contactTypeIDs, err := parseSnowflakeIDs(req.ContactTypeIDs)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	contact, err := s.caseContactSvc.CreateContact(c.Request.Context(), orgID, actor.UserID, casecontactdomain.CreateContactRequest{
		CasaCaseID:               caseID,
		OccurredAt:               occurredAt,
		DurationMinutes:          req.DurationMinutes,
		ContactMade:              req.ContactMade,
		Medium:                   strings.TrimSpace(req.Medium),
		MilesDriven:              req.MilesDriven,
		WantDrivingReimbursement: req.WantDrivingReimbursement,
		Notes:                    req.Notes,
		ContactTypeIDs:           contactTypeIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

type createOtherDutyRequest struct {
	OccurredAt      string `json:"occurred_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

func (s *Server) ListOtherDuties(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	actor, ok := s.requestActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	duties, err := s.caseContactSvc.ListOtherDuties(c.Request.Context(), orgID, actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"other_duties": duties})
}

func (s *Server) CreateOtherDuty(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	actor, ok := s.requestActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createOtherDutyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	occurredAt, err := parseOptionalTime(req.OccurredAt, false)
	if err != nil {
		AbortWithError(c, casecontactdomain.ValidationErrors{casecontactdomain.MsgOccurredAtBlank})
		return
	}

	duty, err := s.caseContactSvc.CreateOtherDuty(c.Request.Context(), orgID, actor.UserID, casecontactdomain.CreateOtherDutyRequest{
		OccurredAt:      occurredAt,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, duty)
}

type createLearningHourRequest struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	OccurredAt      string `json:"occurred_at"`
}

func (s *Server) CreateLearningHour(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	actor, ok := s.requestActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createLearningHourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	occurredAt, err := parseOptionalTime(req.OccurredAt, false)
	if err != nil {
		AbortWithError(c, casecontactdomain.ValidationErrors{casecontactdomain.MsgOccurredAtBlank})
		return
	}

	hour, err := s.caseContactSvc.CreateLearningHour(c.Request.Context(), orgID, actor.UserID, casecontactdomain.CreateLearningHourRequest{
		Title:           strings.TrimSpace(req.Title),
		DurationMinutes: req.DurationMinutes,
		OccurredAt:      occurredAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, hour)
}
