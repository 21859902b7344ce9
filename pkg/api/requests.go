package api

import "github.com/propertyline/leadflow/pkg/models"

// InboundMessageRequest is the body of POST /api/v1/inbound.
type InboundMessageRequest struct {
	LeadID       string          `json:"lead_id" binding:"required"`
	LeadName     string          `json:"lead_name"`
	Channel      models.Channel  `json:"channel" binding:"required"`
	Content      string          `json:"content"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email"`
	LeadKindHint models.LeadKind `json:"lead_kind_hint"`
}

// OptOutRequest is the body of POST /api/v1/optout.
type OptOutRequest struct {
	Phone  string              `json:"phone" binding:"required"`
	Reason models.OptOutReason `json:"reason" binding:"required"`
}
