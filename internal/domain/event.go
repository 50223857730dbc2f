package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// EventType tags an envelope with a value from the closed taxonomy. The
// routing key on the wire is always equal to the type, so consumers bind
// queues with the same dotted patterns.
type EventType string

const (
	EventURLCreated             EventType = "url.created"
	EventURLRedirect            EventType = "url.redirect"
	EventUserCreated            EventType = "user.created"
	EventPasswordResetRequested EventType = "password.reset.requested"
	EventPasswordResetCompleted EventType = "password.reset.completed"
)

var knownEventTypes = map[EventType]struct{}{
	EventURLCreated:             {},
	EventURLRedirect:            {},
	EventUserCreated:            {},
	EventPasswordResetRequested: {},
	EventPasswordResetCompleted: {},
}

// Known reports whether t is part of the taxonomy.
func (t EventType) Known() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// RoutingKey returns the broker routing key for the type.
func (t EventType) RoutingKey() string {
	return string(t)
}

// Category classifies events for preference resolution.
type Category string

const (
	CategoryURLCreation Category = "urlCreation"
	CategoryMilestones  Category = "milestones"
	CategorySystem      Category = "system"
)

var eventCategories = map[EventType]Category{
	EventURLCreated:             CategoryURLCreation,
	EventURLRedirect:            CategoryMilestones,
	EventUserCreated:            CategorySystem,
	EventPasswordResetRequested: CategorySystem,
	EventPasswordResetCompleted: CategorySystem,
}

// CategoryFor maps an event type to its notification category.
func CategoryFor(t EventType) (Category, bool) {
	c, ok := eventCategories[t]
	return c, ok
}

// Envelope is the canonical serialized event unit. The payload is
// immutable once published; consumers treat it as a value.
type Envelope struct {
	Type       EventType       `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	ProducedAt time.Time       `json:"produced_at"`
}

// RoutingKey returns the routing key the envelope is published with.
func (e *Envelope) RoutingKey() string {
	return e.Type.RoutingKey()
}

// EventID derives a deterministic identifier from the envelope content.
// The same envelope always hashes to the same ID, which is what makes
// redelivered messages detectable downstream.
func (e *Envelope) EventID() string {
	data := fmt.Sprintf("%s|%s|%d", e.Type, e.Payload, e.ProducedAt.UnixNano())
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// URLCreatedPayload is carried by url.created events.
type URLCreatedPayload struct {
	UserID      string `json:"user_id"`
	ShortCode   string `json:"short_code"`
	OriginalURL string `json:"original_url"`
	Email       string `json:"email,omitempty"`
}

// URLRedirectPayload is carried by url.redirect events.
type URLRedirectPayload struct {
	ShortCode string `json:"short_code"`
	Timestamp int64  `json:"timestamp"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Referer   string `json:"referer,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// UserCreatedPayload is carried by user.created events.
type UserCreatedPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// PasswordResetPayload is carried by both password.reset.* events.
type PasswordResetPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Recipient extracts the user the event concerns, plus an email address
// when the payload carries one. Returns an error when the payload has no
// user id, which makes the event un-notifiable.
func (e *Envelope) Recipient() (userID, email string, err error) {
	var p struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return "", "", fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if p.UserID == "" {
		return "", "", fmt.Errorf("payload for %s carries no user_id", e.Type)
	}
	return p.UserID, p.Email, nil
}
