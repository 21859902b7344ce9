// Package crm is the collaborator client for the CRM holding lead contacts
// and pipelines. Outbound messages, tags, and contact updates all flow
// through the Client interface; workflows depend on the interface so tests
// run against the Fake.
package crm

import (
	"context"
	"time"

	"github.com/propertyline/leadflow/pkg/models"
)

// Contact is the CRM's view of a lead.
type Contact struct {
	ID             string            `json:"id"`
	Name           string            `json:"name,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Email          string            `json:"email,omitempty"`
	PipelineStage  string            `json:"pipeline_stage,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	CustomFields   map[string]string `json:"custom_fields,omitempty"`
	LastActivityAt time.Time         `json:"last_activity_at,omitzero"`
}

// OutboundMessage is one message to deliver through the CRM's messaging
// integration.
type OutboundMessage struct {
	ContactID string         `json:"contact_id"`
	Channel   models.Channel `json:"channel"`
	Body      string         `json:"body"`
}

// Client is the CRM collaborator surface. All calls honor the context
// deadline; the orchestrator treats failures as degradation, not fatal.
type Client interface {
	// SendMessage delivers one outbound message to a contact.
	SendMessage(ctx context.Context, msg OutboundMessage) error

	// AddTags appends tags to a contact. Existing tags are preserved.
	AddTags(ctx context.Context, contactID string, tags []string) error

	// UpdateContact patches contact fields, including custom fields used to
	// mirror session state.
	UpdateContact(ctx context.Context, contact Contact) error

	// GetContactsByPipelineStage lists contacts sitting in a pipeline stage.
	GetContactsByPipelineStage(ctx context.Context, stage string, limit int) ([]Contact, error)

	// GetContactsInactiveSince lists contacts with no activity since the
	// cutoff.
	GetContactsInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]Contact, error)
}
