package api

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"

	"newsrag/ingest"
	"newsrag/vectorstore"

	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes registers index maintenance endpoints behind the
// X-Admin-Token header check. An empty configured token disables the group
// entirely rather than leaving it open.
func RegisterAdminRoutes(r *gin.Engine, deps Deps) {
	if deps.AdminToken == "" {
		log.Println("Admin token not configured; admin endpoints disabled")
		return
	}

	g := r.Group("/api/admin")
	g.Use(adminAuth(deps.AdminToken))
	g.POST("/ingest/refresh", handleRefresh(deps.Refresher))
	g.GET("/ingest/status", handleRefreshStatus(deps.Refresher))
	g.GET("/index/count", handleIndexCount(deps.Store))
	g.DELETE("/index", handleClearIndex(deps.Store))
}

func adminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin token"})
			return
		}
		c.Next()
	}
}

// handleRefresh starts a corpus rebuild asynchronously and returns
// 202 Accepted immediately.
func handleRefresh(refresher *ingest.Refresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		go func() {
			if err := refresher.Trigger(context.Background()); err != nil {
				log.Printf("Admin-triggered refresh failed: %v", err)
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"status": "refresh started"})
	}
}

func handleRefreshStatus(refresher *ingest.Refresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, refresher.Status())
	}
}

func handleIndexCount(store vectorstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := store.Count(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get count: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

func handleClearIndex(store vectorstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.DeleteByFilter(c.Request.Context(), nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear index: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cleared"})
	}
}
