package domain

import (
	"strings"
	"time"
)

// DeliveryRequest is the channel-specific message fanout emits for the
// channel senders. It carries everything the sender needs so the sender
// never reads the preference store.
type DeliveryRequest struct {
	UserID          string    `json:"user_id"`
	Channel         Channel   `json:"channel"`
	Category        Category  `json:"category"`
	SourceEventType EventType `json:"source_event_type"`
	EventID         string    `json:"event_id"`
	Email           string    `json:"email,omitempty"`
	DeviceTokens    []string  `json:"device_tokens,omitempty"`
	// Deferred marks email requests whose frequency is not immediate;
	// a batch sender picks these up instead of the live one.
	Deferred  bool      `json:"deferred,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RoutingKey routes delivery requests per channel, e.g. delivery.inapp.
func (r *DeliveryRequest) RoutingKey() string {
	return "delivery." + strings.ToLower(string(r.Channel))
}
