package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propertyline/leadflow/pkg/orchestrator"
)

// inboundHandler handles POST /api/v1/inbound: one lead message through the
// full pipeline.
func (s *Server) inboundHandler(c *gin.Context) {
	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := s.orch.HandleInbound(c.Request.Context(), &orchestrator.InboundRequest{
		LeadID:       req.LeadID,
		LeadName:     req.LeadName,
		Channel:      req.Channel,
		Content:      req.Content,
		Phone:        req.Phone,
		Email:        req.Email,
		LeadKindHint: req.LeadKindHint,
	})
	if err != nil {
		if errors.Is(err, orchestrator.ErrMalformedInput) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
