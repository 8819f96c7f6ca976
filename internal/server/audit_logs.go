package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/advocase/internal/audit/domain"
)

// ListAuditLogs pages through the org's audit trail. The org scope comes
// from the request context set by OrgContext.
func (s *Server) ListAuditLogs(c *gin.Context) {
	var req auditdomain.ListAuditLogRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req.Action = c.Query("action")
	req.TargetType = c.Query("target_type")
	req.TargetID = c.Query("target_id")
	req.ActorType = c.Query("actor_type")

	startAt, err := parseOptionalTime(c.Query("start_at"), false)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	endAt, err := parseOptionalTime(c.Query("end_at"), true)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.StartAt = startAt
	req.EndAt = endAt

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
