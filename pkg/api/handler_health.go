package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propertyline/leadflow/pkg/version"
)

// healthHandler handles GET /health. Minimal and unauthenticated: external
// collaborators are deliberately excluded so a degraded CRM or LLM cannot
// make the process look unhealthy to an orchestration layer.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  version.GitCommit,
		Sessions: s.store.Count(),
	})
}
