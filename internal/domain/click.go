package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClickEvent is the analytics row stored in ClickHouse for url.created
// and url.redirect events. EventID plus the version column give
// ReplacingMergeTree enough to collapse redelivered rows.
type ClickEvent struct {
	EventID     string    `ch:"event_id"`
	EventType   string    `ch:"event_type"`
	ShortCode   string    `ch:"short_code"`
	UserID      string    `ch:"user_id"`
	Timestamp   int64     `ch:"timestamp"`
	Referer     string    `ch:"referer"`
	UserAgent   string    `ch:"user_agent"`
	ProcessedAt time.Time `ch:"processed_at"`
	Version     uint64    `ch:"version"`
}

// ClickEventFromEnvelope projects an analytics-bound envelope into a
// storage row. Event types outside the analytics bindings are an error.
func ClickEventFromEnvelope(env *Envelope) (*ClickEvent, error) {
	event := &ClickEvent{
		EventID:     env.EventID(),
		EventType:   string(env.Type),
		Timestamp:   env.ProducedAt.Unix(),
		ProcessedAt: time.Now(),
	}

	switch env.Type {
	case EventURLCreated:
		var p URLCreatedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal url.created payload: %w", err)
		}
		event.ShortCode = p.ShortCode
		event.UserID = p.UserID
	case EventURLRedirect:
		var p URLRedirectPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal url.redirect payload: %w", err)
		}
		event.ShortCode = p.ShortCode
		event.UserID = p.UserID
		event.Referer = p.Referer
		event.UserAgent = p.UserAgent
		if p.Timestamp != 0 {
			event.Timestamp = p.Timestamp
		}
	default:
		return nil, fmt.Errorf("event type %s is not an analytics event", env.Type)
	}

	return event, nil
}
