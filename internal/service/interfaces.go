package service

import (
	"context"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/dto"
)

// EventServicer validates and publishes domain events and serves
// analytics metrics.
type EventServicer interface {
	ProcessEvent(ctx context.Context, req *dto.PublishEventRequest) (string, error)
	ProcessBulkEvents(ctx context.Context, events []dto.PublishEventRequest) ([]string, []string)
	GetMetrics(ctx context.Context, req *dto.GetMetricsRequest) (*dto.GetMetricsResponse, error)
}

// PreferenceServicer serves the preference and device-token API.
type PreferenceServicer interface {
	Get(ctx context.Context, userID string) (*dto.PreferenceResponse, error)
	Update(ctx context.Context, userID string, req *dto.UpdatePreferenceRequest) (*dto.PreferenceResponse, error)
	AddDevice(ctx context.Context, userID string, req *dto.AddDeviceTokenRequest) (*dto.PreferenceResponse, error)
	RemoveDevice(ctx context.Context, userID, token string) (*dto.PreferenceResponse, error)
}
