package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPClient talks to the CRM's REST API. One instance is shared process-wide.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	locationID string
	http       *http.Client
}

// NewHTTPClient creates a CRM client. deadline bounds every request.
func NewHTTPClient(baseURL, apiKey, locationID string, deadline time.Duration) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("crm base URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("crm api key is required")
	}
	return &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		locationID: locationID,
		http:       &http.Client{Timeout: deadline},
	}, nil
}

// Ping verifies the CRM is reachable. Used at startup when the config
// requires collaborators on boot.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// SendMessage delivers one outbound message to a contact.
func (c *HTTPClient) SendMessage(ctx context.Context, msg OutboundMessage) error {
	return c.do(ctx, http.MethodPost, "/conversations/messages", msg, nil)
}

// AddTags appends tags to a contact.
func (c *HTTPClient) AddTags(ctx context.Context, contactID string, tags []string) error {
	body := map[string]any{"tags": tags}
	return c.do(ctx, http.MethodPost, "/contacts/"+url.PathEscape(contactID)+"/tags", body, nil)
}

// UpdateContact patches contact fields.
func (c *HTTPClient) UpdateContact(ctx context.Context, contact Contact) error {
	if contact.ID == "" {
		return fmt.Errorf("contact ID is required")
	}
	return c.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(contact.ID), contact, nil)
}

// GetContactsByPipelineStage lists contacts in a stage.
func (c *HTTPClient) GetContactsByPipelineStage(ctx context.Context, stage string, limit int) ([]Contact, error) {
	q := url.Values{"stage": {stage}, "limit": {strconv.Itoa(limit)}}
	var out struct {
		Contacts []Contact `json:"contacts"`
	}
	if err := c.do(ctx, http.MethodGet, "/contacts?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

// GetContactsInactiveSince lists contacts idle since the cutoff.
func (c *HTTPClient) GetContactsInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]Contact, error) {
	q := url.Values{
		"inactive_since": {cutoff.UTC().Format(time.RFC3339)},
		"limit":          {strconv.Itoa(limit)},
	}
	var out struct {
		Contacts []Contact `json:"contacts"`
	}
	if err := c.do(ctx, http.MethodGet, "/contacts?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Contacts, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal crm request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.locationID != "" {
		req.Header.Set("X-Location-Id", c.locationID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("crm %s %s returned %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode crm response: %w", err)
		}
	}
	return nil
}
