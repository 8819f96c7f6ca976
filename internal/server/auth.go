package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/advocase/internal/audit/domain"
	authdomain "github.com/smallbiznis/advocase/internal/auth/domain"
	"github.com/smallbiznis/advocase/internal/auth/password"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	email := strings.TrimSpace(req.Email)
	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		if s.auditSvc != nil {
			_ = s.auditSvc.AuditLog(c.Request.Context(), nil, string(auditdomain.ActorTypeUser), nil, "user.login_failed", "user", nil, map[string]any{
				"email": email,
			})
		}
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	s.enrichSessionMetadata(c, result)

	if s.auditSvc != nil {
		var userID *string
		if result.Session != nil {
			if rawUserID, ok := result.Session.Metadata["user_id"].(string); ok && strings.TrimSpace(rawUserID) != "" {
				trimmed := strings.TrimSpace(rawUserID)
				userID = &trimmed
			}
		}
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, string(auditdomain.ActorTypeUser), userID, "user.login", "user", userID, map[string]any{
			"email": email,
		})
	}

	c.JSON(http.StatusOK, result.Session)
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
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

	var user authdomain.User
	if err := s.db.WithContext(c.Request.Context()).First(&user, "id = ?", sess.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		AbortWithError(c, err)
		return
	}

	mustChangePassword := user.Provider == "local" && (user.IsDefault || user.LastPasswordChanged == nil)

	orgIDs, err := s.loadUserOrgIDs(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.authsvc.UpdateSessionOrgContext(c.Request.Context(), sess.ID, sess.ActiveOrgID, orgIDs); err != nil {
		AbortWithError(c, err)
		return
	}

	metadata := map[string]any{
		"user_id":              user.ID.String(),
		"display_name":         user.DisplayName,
		"email":                user.Email,
		"must_change_password": mustChangePassword,
		"org_ids":              toOrgIDStrings(orgIDs),
	}
	if sess.ActiveOrgID != nil {
		metadata["active_org_id"] = snowflake.ID(*sess.ActiveOrgID).String()
	}

	c.JSON(http.StatusOK, &authdomain.SessionView{Metadata: metadata})
}

func (s *Server) ChangePassword(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	currentPassword := strings.TrimSpace(req.CurrentPassword)
	newPassword := strings.TrimSpace(req.NewPassword)
	if currentPassword == "" || newPassword == "" || currentPassword == newPassword || len(newPassword) < 8 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var user authdomain.User
	if err := s.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		AbortWithError(c, err)
		return
	}
	if user.PasswordHash == nil || !password.Verify(currentPassword, *user.PasswordHash) {
		AbortWithError(c, authdomain.ErrInvalidCredentials)
		return
	}

	if err := s.authsvc.ChangePassword(c.Request.Context(), userID.String(), newPassword); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) enrichSessionMetadata(c *gin.Context, result *authdomain.LoginResult) {
	if result == nil || result.Session == nil {
		return
	}

	rawUserID, ok := result.Session.Metadata["user_id"].(string)
	if !ok {
		return
	}
	parsedUserID, err := snowflake.ParseString(rawUserID)
	if err != nil {
		return
	}

	orgIDs, err := s.loadUserOrgIDs(c.Request.Context(), parsedUserID)
	if err != nil {
		return
	}
	if err := s.authsvc.UpdateSessionOrgContext(c.Request.Context(), result.SessionID, nil, orgIDs); err != nil {
		return
	}

	result.Session.Metadata["org_ids"] = toOrgIDStrings(orgIDs)
}

func (s *Server) loadUserOrgIDs(ctx context.Context, userID snowflake.ID) ([]int64, error) {
	var orgIDs []int64
	err := s.db.WithContext(ctx).
		Raw("SELECT org_id FROM organization_members WHERE user_id = ? ORDER BY org_id", int64(userID)).
		Scan(&orgIDs).Error
	if err != nil {
		return nil, err
	}
	return orgIDs, nil
}

func toOrgIDStrings(orgIDs []int64) []string {
	out := make([]string, 0, len(orgIDs))
	for _, orgID := range orgIDs {
		out = append(out, snowflake.ID(orgID).String())
	}
	return out
}

func containsOrgID(orgIDs []int64, orgID int64) bool {
	for _, known := range orgIDs {
		if known == orgID {
			return true
		}
	}
	return false
}
