package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"group-chat-service/internal/smartreply"
)

// Suggester produces reply suggestions for a message.
type Suggester interface {
	Suggest(ctx context.Context, message string) ([]string, error)
}

// SmartReplyHandler proxies messages to the completion API, with a cache in
// front so repeated lookups for the same message cost one upstream call.
type SmartReplyHandler struct {
	suggester Suggester
	cache     *smartreply.Cache
}

// NewSmartReplyHandler constructs a SmartReplyHandler.
func NewSmartReplyHandler(suggester Suggester, cache *smartreply.Cache) *SmartReplyHandler {
	return &SmartReplyHandler{suggester: suggester, cache: cache}
}

// Suggest handles POST /api/smart-reply.
func (h *SmartReplyHandler) Suggest(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	if suggestions, ok := h.cache.Get(c.Request.Context(), req.Message); ok {
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
		return
	}

	suggestions, err := h.suggester.Suggest(c.Request.Context(), req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.cache.Set(c.Request.Context(), req.Message, suggestions)
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
