package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"group-chat-service/internal/repositories"
	"group-chat-service/internal/telemetry"
)

// MessageHandler manages the message history endpoints. Persistence here is
// best-effort and independent of the realtime broadcast: the client calls
// both paths for the same send.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	groupRepo   repositories.GroupRepository
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, groupRepo repositories.GroupRepository, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{messageRepo: messageRepo, groupRepo: groupRepo, audit: audit}
}

// ListMessages handles GET /api/messages?groupId=…, returning the group's
// history with sender names attached. Members only.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	groupID := c.Query("groupId")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing groupId"})
		return
	}

	if !h.requireMember(c, groupID) {
		return
	}

	msgs, err := h.messageRepo.ListGroupMessages(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage handles POST /api/messages.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req struct {
		GroupID  string `json:"groupId" binding:"required"`
		UserID   string `json:"userId" binding:"required"`
		Message  string `json:"message" binding:"required"`
		ImageURL string `json:"imageUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	if !h.requireMember(c, req.GroupID) {
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), req.GroupID, req.UserID, req.Message, req.ImageURL)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.emitAudit(c, "INFO", "message stored")
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkRead handles POST /api/messages/read. Marking twice is a no-op; the
// reader is only appended when not already present.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req struct {
		MessageID string `json:"messageId" binding:"required"`
		UserID    string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	if err := h.messageRepo.MarkRead(c.Request.Context(), req.MessageID, req.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

// requireMember checks that the authenticated caller belongs to the group,
// writing the error response itself when they do not. Membership only gates
// the REST surface; the relay stays client-asserted.
func (h *MessageHandler) requireMember(c *gin.Context, groupID string) bool {
	ok, err := h.groupRepo.IsMember(c.Request.Context(), groupID, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return false
	}
	return true
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
