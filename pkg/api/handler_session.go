package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getSessionHandler handles GET /api/v1/sessions/:leadID.
func (s *Server) getSessionHandler(c *gin.Context) {
	leadID := c.Param("leadID")

	snap, ok := s.store.Snapshot(leadID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no live session for lead " + leadID})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// listSessionsHandler handles GET /api/v1/sessions.
func (s *Server) listSessionsHandler(c *gin.Context) {
	sessions := s.store.List()
	c.JSON(http.StatusOK, SessionListResponse{Sessions: sessions, Count: len(sessions)})
}
