package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createContactTypeGroupRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateContactTypeGroup(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req createContactTypeGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	group, err := s.contactTypeSvc.CreateGroup(c.Request.Context(), orgID, strings.TrimSpace(req.Name))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

type createContactTypeRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

func (s *Server) CreateContactType(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req createContactTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	groupID, err := snowflake.ParseString(strings.TrimSpace(req.GroupID))
	if err != nil || groupID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	contactType, err := s.contactTypeSvc.CreateType(c.Request.Context(), orgID, groupID, strings.TrimSpace(req.Name))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contactType)
}

func (s *Server) ListContactTypeGroups(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	groups, err := s.contactTypeSvc.ListGroups(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": groups})
}
