package dto

// PublishEventRequest represents an event publish request.
type PublishEventRequest struct {
	Type    string                 `json:"type" binding:"required" example:"url.created"`
	Payload map[string]interface{} `json:"payload" binding:"required"`
}

// PublishEventsBulkRequest represents a bulk event publish request.
type PublishEventsBulkRequest struct {
	Events []PublishEventRequest `json:"events" binding:"required,min=1,max=1000,dive"`
}

// CategoryChannels is a per-category channel override.
type CategoryChannels struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	InApp bool `json:"in_app"`
}

// UpdatePreferenceRequest carries a partial preference update; omitted
// fields are left unchanged.
type UpdatePreferenceRequest struct {
	Email            *string                     `json:"email,omitempty"`
	EmailEnabled     *bool                       `json:"email_enabled,omitempty"`
	PushEnabled      *bool                       `json:"push_enabled,omitempty"`
	InAppEnabled     *bool                       `json:"in_app_enabled,omitempty"`
	EmailFrequency   *string                     `json:"email_frequency,omitempty" example:"daily"`
	CategorySettings map[string]CategoryChannels `json:"category_settings,omitempty"`
}

// AddDeviceTokenRequest registers a push token for a user.
type AddDeviceTokenRequest struct {
	Token  string `json:"token" binding:"required"`
	Device string `json:"device" binding:"required" example:"pixel-8"`
}

// GetMetricsRequest represents a metrics query request.
type GetMetricsRequest struct {
	EventType string `form:"event_type" binding:"required" example:"url.redirect"`
	From      int64  `form:"from" binding:"required" example:"1723475612"`
	To        int64  `form:"to" binding:"required" example:"1723562012"`
	GroupBy   string `form:"group_by" example:"short_code"`
}
