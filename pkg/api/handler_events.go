package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// eventsHandler handles GET /api/v1/events?lead_id=… and returns the
// retained event ring for a lead, oldest first.
func (s *Server) eventsHandler(c *gin.Context) {
	leadID := c.Query("lead_id")
	if leadID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lead_id is required"})
		return
	}

	c.JSON(http.StatusOK, EventsResponse{
		LeadID: leadID,
		Events: s.bus.Recent(leadID),
	})
}
