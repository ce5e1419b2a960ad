package api

import (
	"errors"
	"net/http"
	"time"

	"newsrag/retrieval"
	"newsrag/types"

	"github.com/gin-gonic/gin"
)

// RegisterSearchRoutes registers the direct retrieval endpoint.
func RegisterSearchRoutes(r *gin.Engine, deps Deps) {
	g := r.Group("/api/search")
	g.POST("", handleSearch(deps.Search))
}

// SearchRequest is a standalone retrieval query, no session involved.
type SearchRequest struct {
	Query   string              `json:"query" binding:"required"`
	Options types.SearchOptions `json:"options,omitempty"`
}

// SearchResponse lists the retained hits in relevance order.
type SearchResponse struct {
	Query     string               `json:"query"`
	Results   []types.RankedResult `json:"results"`
	Count     int                  `json:"count"`
	TookMs    int64                `json:"took_ms"`
	Timestamp time.Time            `json:"timestamp"`
}

func handleSearch(svc *retrieval.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		started := time.Now()
		results, err := svc.Search(c.Request.Context(), req.Query, req.Options)
		if err != nil {
			switch {
			case errors.Is(err, types.ErrInvalidQuery):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, types.ErrDownstreamUnavailable), errors.Is(err, types.ErrDownstreamTimeout):
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed: " + err.Error()})
			}
			return
		}

		if results == nil {
			results = []types.RankedResult{}
		}
		c.JSON(http.StatusOK, SearchResponse{
			Query:     req.Query,
			Results:   results,
			Count:     len(results),
			TookMs:    time.Since(started).Milliseconds(),
			Timestamp: time.Now(),
		})
	}
}
