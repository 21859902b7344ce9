package api

import (
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/models"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"active_sessions"`
}

// SessionListResponse is the body of GET /api/v1/sessions.
type SessionListResponse struct {
	Sessions []*models.SessionSnapshot `json:"sessions"`
	Count    int                       `json:"count"`
}

// EventsResponse is the body of GET /api/v1/events.
type EventsResponse struct {
	LeadID string         `json:"lead_id"`
	Events []events.Event `json:"events"`
}
