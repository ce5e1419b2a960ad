package api

import (
	"errors"
	"net/http"
	"time"

	"newsrag/chat"
	"newsrag/types"

	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers the conversational endpoint.
func RegisterChatRoutes(r *gin.Engine, deps Deps) {
	g := r.Group("/api/chat")
	g.POST("", handleChat(deps.Chat))
}

// ChatRequest represents one user turn.
type ChatRequest struct {
	Message   string              `json:"message" binding:"required"`
	SessionID string              `json:"session_id,omitempty"`
	Options   types.SearchOptions `json:"options,omitempty"`
}

// ChatResponse carries the assistant reply and the context it drew on.
type ChatResponse struct {
	SessionID string               `json:"session_id"`
	Response  string               `json:"response"`
	Degraded  bool                 `json:"degraded,omitempty"`
	Context   []types.RankedResult `json:"context,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

func handleChat(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := svc.Turn(c.Request.Context(), chat.TurnRequest{
			Message:   req.Message,
			SessionID: req.SessionID,
			Options:   req.Options,
		})
		if err != nil {
			if errors.Is(err, types.ErrInvalidInput) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete turn: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, ChatResponse{
			SessionID: resp.SessionID,
			Response:  resp.Message.Content,
			Degraded:  resp.Message.IsDegraded(),
			Context:   resp.RAGContext,
			Timestamp: resp.Message.Timestamp,
		})
	}
}
