package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"group-chat-service/internal/repositories"
	"group-chat-service/internal/telemetry"
)

// GroupHandler manages group endpoints.
type GroupHandler struct {
	groupRepo repositories.GroupRepository
	audit     *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groupRepo repositories.GroupRepository, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{groupRepo: groupRepo, audit: audit}
}

// ListGroups handles GET /api/groups. Every group is listed so users can
// discover and join rooms.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupRepo.ListGroups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// CreateGroup handles POST /api/groups. The caller becomes the first member.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	group, err := h.groupRepo.CreateGroup(c.Request.Context(), c.GetString("userID"), req.Name)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitAudit(c, "INFO", "group created")
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// JoinGroup handles POST /api/groups/join. Joining twice is a no-op.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	var req struct {
		GroupID string `json:"groupId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	if err := h.groupRepo.JoinGroup(c.Request.Context(), req.GroupID, c.GetString("userID")); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join group"})
		return
	}

	h.emitAudit(c, "INFO", "group joined")
	c.JSON(http.StatusOK, gin.H{"message": "joined group successfully"})
}

// LeaveGroup handles POST /api/groups/leave.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	var req struct {
		GroupID string `json:"groupId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	if err := h.groupRepo.LeaveGroup(c.Request.Context(), req.GroupID, c.GetString("userID")); err != nil {
		if errors.Is(err, repositories.ErrNotAMember) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found or user was not a member"})
			return
		}
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave group"})
		return
	}

	h.emitAudit(c, "INFO", "group left")
	c.JSON(http.StatusOK, gin.H{"message": "left group successfully"})
}

// DeleteGroup handles DELETE /api/groups/:group_id.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID := c.Param("group_id")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	if err := h.groupRepo.DeleteGroup(c.Request.Context(), groupID); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete group"})
		return
	}

	h.emitAudit(c, "INFO", "group deleted")
	c.JSON(http.StatusOK, gin.H{"message": "group deleted successfully"})
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
