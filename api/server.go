package api

import (
	"newsrag/chat"
	"newsrag/ingest"
	"newsrag/retrieval"
	"newsrag/vectorstore"

	"github.com/gin-gonic/gin"
)

// Deps holds the long-lived services the HTTP surface exposes.
type Deps struct {
	Chat       *chat.Service
	Sessions   chat.SessionStore
	Search     *retrieval.Service
	Refresher  *ingest.Refresher
	Store      vectorstore.Store
	AdminToken string
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	// Register resource routers
	RegisterChatRoutes(r, deps)
	RegisterSearchRoutes(r, deps)
	RegisterSessionRoutes(r, deps)
	RegisterAdminRoutes(r, deps)
	RegisterHealthRoutes(r)
	return r
}
