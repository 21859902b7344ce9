package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propertyline/leadflow/pkg/compliance"
)

// optOutHandler handles POST /api/v1/optout: an administrative opt-out,
// equivalent to an inbound STOP for every later observation.
func (s *Server) optOutHandler(c *gin.Context) {
	var req OptOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if !req.Reason.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown opt-out reason: " + string(req.Reason)})
		return
	}

	if err := s.gate.ProcessOptOut(c.Request.Context(), req.Phone, req.Reason); err != nil {
		if errors.Is(err, compliance.ErrInvalidPhone) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "opted-out"})
}

// complianceStatusHandler handles GET /api/v1/compliance/status?phone=…
func (s *Server) complianceStatusHandler(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "phone is required"})
		return
	}

	status, err := s.gate.Status(c.Request.Context(), phone)
	if err != nil {
		if errors.Is(err, compliance.ErrInvalidPhone) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}
