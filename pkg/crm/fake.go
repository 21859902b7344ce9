package crm

import (
	"context"
	"sync"
	"time"
)

// Fake is the in-memory CRM used by tests and local dev. It records every
// sent message and tag mutation for assertions.
type Fake struct {
	mu       sync.Mutex
	contacts map[string]Contact
	Sent     []OutboundMessage
	// SendErr, when set, is returned by SendMessage to simulate outages.
	SendErr error
}

// NewFake creates an empty fake CRM.
func NewFake() *Fake {
	return &Fake{contacts: make(map[string]Contact)}
}

// Seed inserts contacts directly.
func (f *Fake) Seed(contacts ...Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range contacts {
		f.contacts[c.ID] = c
	}
}

// SendMessage records the message.
func (f *Fake) SendMessage(_ context.Context, msg OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, msg)
	return nil
}

// AddTags appends tags, skipping duplicates.
func (f *Fake) AddTags(_ context.Context, contactID string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.contacts[contactID]
	c.ID = contactID
	for _, tag := range tags {
		if !containsTag(c.Tags, tag) {
			c.Tags = append(c.Tags, tag)
		}
	}
	f.contacts[contactID] = c
	return nil
}

// UpdateContact patches the stored contact. Zero-valued fields keep their
// stored value and custom fields merge, mirroring how the real API treats
// partial updates.
func (f *Fake) UpdateContact(_ context.Context, contact Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.contacts[contact.ID]
	c.ID = contact.ID
	if contact.Name != "" {
		c.Name = contact.Name
	}
	if contact.Phone != "" {
		c.Phone = contact.Phone
	}
	if contact.Email != "" {
		c.Email = contact.Email
	}
	if contact.PipelineStage != "" {
		c.PipelineStage = contact.PipelineStage
	}
	if len(contact.Tags) > 0 {
		for _, tag := range contact.Tags {
			if !containsTag(c.Tags, tag) {
				c.Tags = append(c.Tags, tag)
			}
		}
	}
	if len(contact.CustomFields) > 0 {
		if c.CustomFields == nil {
			c.CustomFields = make(map[string]string, len(contact.CustomFields))
		}
		for k, v := range contact.CustomFields {
			c.CustomFields[k] = v
		}
	}
	if !contact.LastActivityAt.IsZero() {
		c.LastActivityAt = contact.LastActivityAt
	}
	f.contacts[contact.ID] = c
	return nil
}

// GetContactsByPipelineStage lists seeded contacts in a stage.
func (f *Fake) GetContactsByPipelineStage(_ context.Context, stage string, limit int) ([]Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Contact
	for _, c := range f.contacts {
		if c.PipelineStage == stage && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetContactsInactiveSince lists seeded contacts idle since the cutoff.
func (f *Fake) GetContactsInactiveSince(_ context.Context, cutoff time.Time, limit int) ([]Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Contact
	for _, c := range f.contacts {
		if !c.LastActivityAt.IsZero() && c.LastActivityAt.Before(cutoff) && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

// Contact returns the stored contact and whether it exists. Test helper.
func (f *Fake) Contact(id string) (Contact, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	return c, ok
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
