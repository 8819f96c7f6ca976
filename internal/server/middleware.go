package server

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/advocase/internal/auth/domain"
	"github.com/smallbiznis/advocase/internal/orgcontext"
)

const (
	HeaderOrg = "X-Org-ID"

	contextUserIDKey  = "user_id"
	contextSessionKey = "session"
	contextOrgIDKey   = "org_id"
	contextRoleKey    = "member_role"
)

// WebAuthRequired authenticates the session cookie and stashes the user
// and session on the request context.
func (s *Server) WebAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, sess.UserID.String())
		c.Set(contextSessionKey, sess)
		c.Next()
	}
}

// OrgContext resolves the active organization from the X-Org-ID header or
// the session's picked org, verifies membership and stashes the org id and
// member role. Every scoped query downstream reads the org from here.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.userIDFromSession(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		orgID, err := s.orgIDFromRequest(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		role, err := s.memberRole(c.Request.Context(), orgID, userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if role == "" {
			AbortWithError(c, ErrForbidden)
			return
		}

		c.Set(contextOrgIDKey, int64(orgID))
		c.Set(contextRoleKey, role)
		c.Request = c.Request.WithContext(orgcontext.WithOrgID(c.Request.Context(), int64(orgID)))
		c.Next()
	}
}

// RequireRole gates a route to the named membership roles. Runs after
// OrgContext.
func (s *Server) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(contextRoleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

func (s *Server) orgIDFromRequest(c *gin.Context) (snowflake.ID, error) {
	if raw := strings.TrimSpace(c.GetHeader(HeaderOrg)); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed == 0 {
			return 0, ErrInvalidRequest
		}
		return parsed, nil
	}

	if sess, ok := s.sessionFromContext(c); ok && sess.ActiveOrgID != nil && *sess.ActiveOrgID != 0 {
		return snowflake.ID(*sess.ActiveOrgID), nil
	}

	return 0, ErrInvalidRequest
}

func (s *Server) memberRole(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (string, error) {
	var role string
	err := s.db.WithContext(ctx).
		Raw("SELECT role FROM organization_members WHERE org_id = ? AND user_id = ? LIMIT 1", int64(orgID), int64(userID)).
		Scan(&role).Error
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(role), nil
}

func (s *Server) userIDFromSession(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	raw, ok := value.(string)
	if !ok {
		return 0, false
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return userID, true
}

func (s *Server) sessionFromContext(c *gin.Context) (*authdomain.Session, bool) {
	value, ok := c.Get(contextSessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := value.(*authdomain.Session)
	if !ok || sess == nil {
		return nil, false
	}
	return sess, true
}

func (s *Server) orgIDFromGinContext(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextOrgIDKey)
	if !ok {
		return 0, false
	}
	raw, ok := value.(int64)
	if !ok || raw == 0 {
		return 0, false
	}
	return snowflake.ID(raw), true
}
