package api

import (
	"net/http"

	"newsrag/chat"
	"newsrag/types"

	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes registers session inspection and lifecycle endpoints.
func RegisterSessionRoutes(r *gin.Engine, deps Deps) {
	g := r.Group("/api/sessions")
	g.GET("/:id", handleGetSession(deps.Sessions))
	g.GET("/:id/history", handleGetHistory(deps.Sessions))
	g.DELETE("/:id", handleDeleteSession(deps.Sessions))
}

// SessionInfoResponse summarizes one session.
type SessionInfoResponse struct {
	SessionID    string `json:"session_id"`
	Exists       bool   `json:"exists"`
	MessageCount int64  `json:"message_count"`
}

func handleGetSession(sessions chat.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")

		exists, err := sessions.Exists(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up session: " + err.Error()})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		count, err := sessions.MessageCount(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count messages: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, SessionInfoResponse{
			SessionID:    sessionID,
			Exists:       true,
			MessageCount: count,
		})
	}
}

func handleGetHistory(sessions chat.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")

		history, err := sessions.History(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history: " + err.Error()})
			return
		}
		if history == nil {
			history = []types.ConversationMessage{}
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": sessionID,
			"messages":   history,
			"count":      len(history),
		})
	}
}

func handleDeleteSession(sessions chat.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")

		if err := sessions.Delete(c.Request.Context(), sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete session: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id": sessionID,
			"status":     "deleted",
		})
	}
}
