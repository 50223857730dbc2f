package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventType_Known(t *testing.T) {
	known := []EventType{
		EventURLCreated,
		EventURLRedirect,
		EventUserCreated,
		EventPasswordResetRequested,
		EventPasswordResetCompleted,
	}
	for _, eventType := range known {
		assert.True(t, eventType.Known(), "expected %s to be known", eventType)
	}

	assert.False(t, EventType("url.deleted").Known())
	assert.False(t, EventType("").Known())
	assert.False(t, EventType("URL.CREATED").Known())
}

func TestEventType_RoutingKey(t *testing.T) {
	assert.Equal(t, "url.created", EventURLCreated.RoutingKey())
	assert.Equal(t, "password.reset.requested", EventPasswordResetRequested.RoutingKey())
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		eventType EventType
		category  Category
	}{
		{EventURLCreated, CategoryURLCreation},
		{EventURLRedirect, CategoryMilestones},
		{EventUserCreated, CategorySystem},
		{EventPasswordResetRequested, CategorySystem},
		{EventPasswordResetCompleted, CategorySystem},
	}

	for _, tt := range tests {
		category, ok := CategoryFor(tt.eventType)
		assert.True(t, ok, "expected category for %s", tt.eventType)
		assert.Equal(t, tt.category, category)
	}

	_, ok := CategoryFor(EventType("url.deleted"))
	assert.False(t, ok)
}

func TestEnvelope_EventID_Deterministic(t *testing.T) {
	producedAt := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := json.RawMessage(`{"user_id":"user123","short_code":"abc123"}`)

	env1 := &Envelope{Type: EventURLCreated, Payload: payload, ProducedAt: producedAt}
	env2 := &Envelope{Type: EventURLCreated, Payload: payload, ProducedAt: producedAt}

	assert.Equal(t, env1.EventID(), env2.EventID(), "same content should hash to the same id")
	assert.Len(t, env1.EventID(), 64)
}

func TestEnvelope_EventID_ContentSensitive(t *testing.T) {
	producedAt := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := json.RawMessage(`{"user_id":"user123"}`)

	base := &Envelope{Type: EventURLCreated, Payload: payload, ProducedAt: producedAt}

	differentType := &Envelope{Type: EventUserCreated, Payload: payload, ProducedAt: producedAt}
	assert.NotEqual(t, base.EventID(), differentType.EventID())

	differentPayload := &Envelope{Type: EventURLCreated, Payload: json.RawMessage(`{"user_id":"user456"}`), ProducedAt: producedAt}
	assert.NotEqual(t, base.EventID(), differentPayload.EventID())

	differentTime := &Envelope{Type: EventURLCreated, Payload: payload, ProducedAt: producedAt.Add(time.Nanosecond)}
	assert.NotEqual(t, base.EventID(), differentTime.EventID())
}

func TestEnvelope_Recipient(t *testing.T) {
	env := &Envelope{
		Type:    EventUserCreated,
		Payload: json.RawMessage(`{"user_id":"user123","email":"user@example.com"}`),
	}

	userID, email, err := env.Recipient()
	assert.NoError(t, err)
	assert.Equal(t, "user123", userID)
	assert.Equal(t, "user@example.com", email)
}

func TestEnvelope_Recipient_NoEmail(t *testing.T) {
	env := &Envelope{
		Type:    EventURLCreated,
		Payload: json.RawMessage(`{"user_id":"user123","short_code":"abc123"}`),
	}

	userID, email, err := env.Recipient()
	assert.NoError(t, err)
	assert.Equal(t, "user123", userID)
	assert.Empty(t, email)
}

func TestEnvelope_Recipient_MissingUserID(t *testing.T) {
	env := &Envelope{
		Type:    EventURLRedirect,
		Payload: json.RawMessage(`{"short_code":"abc123"}`),
	}

	_, _, err := env.Recipient()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no user_id")
}

func TestEnvelope_Recipient_MalformedPayload(t *testing.T) {
	env := &Envelope{
		Type:    EventUserCreated,
		Payload: json.RawMessage(`not json`),
	}

	_, _, err := env.Recipient()
	assert.Error(t, err)
}
