package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	casacasedomain "github.com/smallbiznis/advocase/internal/casacase/domain"
	organizationdomain "github.com/smallbiznis/advocase/internal/organization/domain"
	reportdomain "github.com/smallbiznis/advocase/internal/report/domain"
)

const birthMonthLayout = "2006-01"

type courtOrderPayload struct {
	ID                   *string `json:"id,omitempty"`
	Text                 string  `json:"text"`
	ImplementationStatus *string `json:"implementation_status,omitempty"`
}

type createCasaCaseRequest struct {
	CaseNumber          string              `json:"case_number"`
	BirthMonthYearYouth string              `json:"birth_month_year_youth"`
	CourtReportStatus   string              `json:"court_report_status"`
	ContactTypeIDs      []string            `json:"contact_type_ids"`
	CourtOrders         []courtOrderPayload `json:"court_orders"`
}

type updateCasaCaseRequest struct {
	CaseNumber          *string              `json:"case_number,omitempty"`
	BirthMonthYearYouth *string              `json:"birth_month_year_youth,omitempty"`
	CourtReportStatus   *string              `json:"court_report_status,omitempty"`
	ContactTypeIDs      *[]string            `json:"contact_type_ids,omitempty"`
	CourtOrders         *[]courtOrderPayload `json:"court_orders,omitempty"`
}

func (s *Server) ListCasaCases(c *gin.Context) {
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

	cases, err := s.casaCaseSvc.List(c.Request.Context(), orgID, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body := gin.H{"casa_cases": cases}
	if actor.Role == organizationdomain.RoleVolunteer {
		duties, err := s.caseContactSvc.ListOtherDuties(c.Request.Context(), orgID, actor.UserID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		body["other_duties"] = duties
	}

	c.JSON(http.StatusOK, body)
}

// NewCasaCase serves the metadata behind the new-case form: the contact
// type taxonomy and the court report status vocabulary.
func (s *Server) NewCasaCase(c *gin.Context) {
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
	if !casacasedomain.CanViewNewForm(actor.Role) {
		AbortWithError(c, casacasedomain.ErrNotAuthorized)
		return
	}

	groups, err := s.contactTypeSvc.ListGroups(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contact_type_groups": groups,
		"court_report_statuses": []string{
			casacasedomain.CourtReportNotSubmitted,
			casacasedomain.CourtReportSubmitted,
			casacasedomain.CourtReportCompleted,
		},
	})
}

func (s *Server) CreateCasaCase(c *gin.Context) {
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

	var req createCasaCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	contactTypeIDs, err := parseSnowflakeIDs(req.ContactTypeIDs)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	orders, err := toCourtOrderInputs(req.CourtOrders)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	detail, err := s.casaCaseSvc.Create(c.Request.Context(), orgID, actor, casacasedomain.CreateCaseRequest{
		CaseNumber:          strings.TrimSpace(req.CaseNumber),
		BirthMonthYearYouth: parseBirthMonth(req.BirthMonthYearYouth),
		CourtReportStatus:   strings.TrimSpace(req.CourtReportStatus),
		ContactTypeIDs:      contactTypeIDs,
		CourtOrders:         orders,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, detail)
}

func (s *Server) GetCasaCase(c *gin.Context) {
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

	detail, err := s.casaCaseSvc.Get(c.Request.Context(), orgID, actor, caseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format == reportdomain.FormatCSV || format == reportdomain.FormatXLSX {
		s.streamCaseContactExport(c, orgID, caseID, format)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// streamCaseContactExport serves the single-case contact export behind
// GET /casa_cases/:id?format=csv|xlsx. Case visibility was already
// checked by the detail lookup.
func (s *Server) streamCaseContactExport(c *gin.Context, orgID snowflake.ID, caseID snowflake.ID, format string) {
	export, err := s.reportSvc.CaseContacts(c.Request.Context(), orgID, reportdomain.Filter{
		CasaCaseID: &caseID,
	}, format)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.httpMetrics != nil {
		s.httpMetrics.RecordReportExport("case_contacts", format)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

func (s *Server) EditCasaCase(c *gin.Context) {
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

	detail, err := s.casaCaseSvc.Get(c.Request.Context(), orgID, actor, caseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail":              detail,
		"editable_attributes": casacasedomain.EditableAttributes(actor.Role),
	})
}

func (s *Server) UpdateCasaCase(c *gin.Context) {
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

	var req updateCasaCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	update := casacasedomain.UpdateCaseRequest{
		CourtReportStatus: req.CourtReportStatus,
	}
	if req.CaseNumber != nil {
		trimmed := strings.TrimSpace(*req.CaseNumber)
		update.CaseNumber = &trimmed
	}
	if req.BirthMonthYearYouth != nil {
		update.BirthMonthYearYouth = parseBirthMonth(*req.BirthMonthYearYouth)
	}
	if req.ContactTypeIDs != nil {
		parsed, err := parseSnowflakeIDs(*req.ContactTypeIDs)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		update.ContactTypeIDs = &parsed
	}
	if req.CourtOrders != nil {
		orders, err := toCourtOrderInputs(*req.CourtOrders)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		update.CourtOrders = &orders
	}

	result, err := s.casaCaseSvc.Update(c.Request.Context(), orgID, actor, caseID, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"casa_case": result.Detail,
		"notice":    result.Summary,
	})
}

func (s *Server) DeactivateCasaCase(c *gin.Context) {
	s.transitionCasaCase(c, false)
}

func (s *Server) ReactivateCasaCase(c *gin.Context) {
	s.transitionCasaCase(c, true)
}

func (s *Server) transitionCasaCase(c *gin.Context, targetActive bool) {
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

	var result *casacasedomain.TransitionResult
	if targetActive {
		result, err = s.casaCaseSvc.Reactivate(c.Request.Context(), orgID, actor, caseID)
	} else {
		result, err = s.casaCaseSvc.Deactivate(c.Request.Context(), orgID, actor, caseID)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"casa_case": result.CasaCase,
		"notice":    result.Notice,
	})
}

type assignVolunteerRequest struct {
	VolunteerUserID string `json:"volunteer_user_id"`
}

func (s *Server) AssignVolunteer(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	caseID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || caseID == 0 {
		AbortWithError(c, casacasedomain.ErrCaseNotFound)
		return
	}

	var req assignVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	volunteerID, err := snowflake.ParseString(strings.TrimSpace(req.VolunteerUserID))
	if err != nil || volunteerID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.casaCaseSvc.Assign(c.Request.Context(), orgID, caseID, volunteerID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseBirthMonth accepts "YYYY-MM" or "YYYY-MM-DD" and truncates to the
// first of the month. Blank or unparseable input comes back nil so the
// service reports the blank-field message.
func parseBirthMonth(raw string) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	parsed, err := time.Parse(birthMonthLayout, trimmed)
	if err != nil {
		parsed, err = time.Parse(dateOnlyLayout, trimmed)
		if err != nil {
			return nil
		}
	}
	truncated := time.Date(parsed.Year(), parsed.Month(), 1, 0, 0, 0, 0, time.UTC)
	return &truncated
}

func parseSnowflakeIDs(raw []string) ([]snowflake.ID, error) {
	ids := make([]snowflake.ID, 0, len(raw))
	for _, value := range raw {
		parsed, err := snowflake.ParseString(strings.TrimSpace(value))
		if err != nil || parsed == 0 {
			return nil, ErrInvalidRequest
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

func toCourtOrderInputs(payloads []courtOrderPayload) ([]casacasedomain.CourtOrderInput, error) {
	orders := make([]casacasedomain.CourtOrderInput, 0, len(payloads))
	for _, payload := range payloads {
		input := casacasedomain.CourtOrderInput{
			Text:                 payload.Text,
			ImplementationStatus: payload.ImplementationStatus,
		}
		if payload.ID != nil && strings.TrimSpace(*payload.ID) != "" {
			parsed, err := snowflake.ParseString(strings.TrimSpace(*payload.ID))
			if err != nil || parsed == 0 {
				return nil, ErrInvalidRequest
			}
			input.ID = &parsed
		}
		orders = append(orders, input)
	}
	return orders, nil
}
