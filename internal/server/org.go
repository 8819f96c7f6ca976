package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/advocase/internal/auth/domain"
	organizationdomain "github.com/smallbiznis/advocase/internal/organization/domain"
)

type createOrganizationRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateOrganization(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.organizationSvc.Create(c.Request.Context(), userID, organizationdomain.CreateOrganizationRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListOrganizations(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	items, err := s.organizationSvc.ListOrganizationsByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListUserOrgs(c *gin.Context) {
	s.ListOrganizations(c)
}

func (s *Server) UseOrg(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	parsed, err := snowflake.ParseString(strings.TrimSpace(c.Param("orgId")))
	if err != nil || parsed == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	orgIDs, err := s.loadUserOrgIDs(c.Request.Context(), sess.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resolvedOrgID := int64(parsed)
	if !containsOrgID(orgIDs, resolvedOrgID) {
		AbortWithError(c, ErrForbidden)
		return
	}

	if err := s.authsvc.UpdateSessionOrgContext(c.Request.Context(), sess.ID, &resolvedOrgID, orgIDs); err != nil {
		AbortWithError(c, err)
		return
	}

	metadata := map[string]any{
		"user_id":       sess.UserID.String(),
		"active_org_id": parsed.String(),
		"org_ids":       toOrgIDStrings(orgIDs),
	}
	c.JSON(http.StatusOK, &authdomain.SessionView{Metadata: metadata})
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (s *Server) AddMember(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	memberID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil || memberID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.organizationSvc.AddMember(c.Request.Context(), orgID, memberID, strings.TrimSpace(req.Role)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type assignSupervisorRequest struct {
	SupervisorUserID string `json:"supervisor_user_id"`
	VolunteerUserID  string `json:"volunteer_user_id"`
}

func (s *Server) AssignSupervisor(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req assignSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	supervisorID, err := snowflake.ParseString(strings.TrimSpace(req.SupervisorUserID))
	if err != nil || supervisorID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	volunteerID, err := snowflake.ParseString(strings.TrimSpace(req.VolunteerUserID))
	if err != nil || volunteerID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.organizationSvc.AssignSupervisor(c.Request.Context(), orgID, supervisorID, volunteerID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
