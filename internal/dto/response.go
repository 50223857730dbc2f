package dto

import "time"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"type is required"`
}

// PublishEventResponse represents a successful event publish response.
type PublishEventResponse struct {
	EventID string `json:"event_id"`
	Status  string `json:"status" example:"accepted"`
}

// PublishBulkEventsResponse represents a bulk publish response.
type PublishBulkEventsResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	EventIDs []string `json:"event_ids,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// DeviceTokenData is a device token in a preference response.
type DeviceTokenData struct {
	Token      string    `json:"token"`
	Device     string    `json:"device"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// PreferenceResponse is the external view of a preference record.
type PreferenceResponse struct {
	UserID           string                      `json:"user_id"`
	Email            string                      `json:"email,omitempty"`
	EmailEnabled     bool                        `json:"email_enabled"`
	PushEnabled      bool                        `json:"push_enabled"`
	InAppEnabled     bool                        `json:"in_app_enabled"`
	EmailFrequency   string                      `json:"email_frequency"`
	CategorySettings map[string]CategoryChannels `json:"category_settings,omitempty"`
	DeviceTokens     []DeviceTokenData           `json:"device_tokens,omitempty"`
}

// MetricsGroupData represents aggregated metrics for a specific group.
type MetricsGroupData struct {
	GroupValue string `json:"group_value" example:"abc123"`
	TotalCount uint64 `json:"total_count" example:"1500"`
}

// GetMetricsResponse represents the metrics query response.
type GetMetricsResponse struct {
	EventType   string             `json:"event_type"`
	From        int64              `json:"from"`
	To          int64              `json:"to"`
	TotalCount  uint64             `json:"total_count"`
	UniqueUsers uint64             `json:"unique_users"`
	GroupBy     string             `json:"group_by,omitempty"`
	Groups      []MetricsGroupData `json:"groups,omitempty"`
}
