package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	casacasedomain "github.com/smallbiznis/advocase/internal/casacase/domain"
)

// authorizeOrgAction enforces an RBAC policy check for the session user
// within the active organization. Runs after WebAuthRequired + OrgContext.
func (s *Server) authorizeOrgAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.userIDFromSession(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		orgID, ok := s.orgIDFromGinContext(c)
		if !ok {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		subject := fmt.Sprintf("user:%s", userID.String())
		if err := s.authzSvc.Authorize(c.Request.Context(), subject, orgID.String(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// requestActor builds the case-service actor from the authenticated
// session and resolved membership role.
func (s *Server) requestActor(c *gin.Context) (casacasedomain.Actor, bool) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		return casacasedomain.Actor{}, false
	}
	role := c.GetString(contextRoleKey)
	if role == "" {
		return casacasedomain.Actor{}, false
	}
	return casacasedomain.Actor{UserID: userID, Role: role}, true
}
