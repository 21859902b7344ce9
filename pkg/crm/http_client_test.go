package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyline/leadflow/pkg/models"
)

func TestHTTPClient_SendMessage(t *testing.T) {
	var gotAuth, gotLocation string
	var gotBody OutboundMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/conversations/messages", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotLocation = r.Header.Get("X-Location-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, "test-key", "loc-1", 5*time.Second)
	require.NoError(t, err)

	err = c.SendMessage(context.Background(), OutboundMessage{
		ContactID: "contact-1",
		Channel:   models.ChannelSMS,
		Body:      "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "loc-1", gotLocation)
	assert.Equal(t, "contact-1", gotBody.ContactID)
	assert.Equal(t, models.ChannelSMS, gotBody.Channel)
}

func TestHTTPClient_GetContactsByPipelineStage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stale", r.URL.Query().Get("stage"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"contacts": []Contact{
				{ID: "c1", Name: "Sarah", PipelineStage: "stale"},
				{ID: "c2", Name: "Mike", PipelineStage: "stale"},
			},
		})
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, "test-key", "", 5*time.Second)
	require.NoError(t, err)

	contacts, err := c.GetContactsByPipelineStage(context.Background(), "stale", 50)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Sarah", contacts[0].Name)
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"contact not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, "test-key", "", 5*time.Second)
	require.NoError(t, err)

	err = c.AddTags(context.Background(), "missing", []string{"hot-lead"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "contact not found")
}

func TestHTTPClient_DeadlineEnforced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, "test-key", "", 20*time.Millisecond)
	require.NoError(t, err)

	err = c.SendMessage(context.Background(), OutboundMessage{ContactID: "c1"})
	assert.Error(t, err)
}

func TestHTTPClient_RequiresConfig(t *testing.T) {
	_, err := NewHTTPClient("", "key", "", time.Second)
	assert.Error(t, err)
	_, err = NewHTTPClient("http://crm", "", "", time.Second)
	assert.Error(t, err)
}
