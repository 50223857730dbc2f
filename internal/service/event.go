package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/dto"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/repository"
)

// EventService validates incoming events against the taxonomy, stamps
// producedAt, and publishes. Publish is a single attempt: a failure is
// returned to the caller, who decides whether to retry or escalate.
type EventService struct {
	publisher queue.EventPublisher
	clicks    repository.ClickRepository
	log       *zap.Logger
}

// NewEventService creates a new event service.
func NewEventService(publisher queue.EventPublisher, clicks repository.ClickRepository, log *zap.Logger) *EventService {
	return &EventService{
		publisher: publisher,
		clicks:    clicks,
		log:       log,
	}
}

// ProcessEvent validates and publishes a single event, returning the
// deterministic event ID.
func (s *EventService) ProcessEvent(ctx context.Context, req *dto.PublishEventRequest) (string, error) {
	eventType := domain.EventType(req.Type)
	if !eventType.Known() {
		s.log.Warn("Rejecting event with unknown type", zap.String("type", req.Type))
		return "", fmt.Errorf("%w: %q", queue.ErrUnknownEventType, req.Type)
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	env := &domain.Envelope{
		Type:       eventType,
		Payload:    payload,
		ProducedAt: time.Now().UTC(),
	}

	if err := s.publisher.PublishEvent(ctx, env); err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}

	return env.EventID(), nil
}

// ProcessBulkEvents publishes multiple events, collecting per-event
// failures instead of aborting the batch.
func (s *EventService) ProcessBulkEvents(ctx context.Context, events []dto.PublishEventRequest) ([]string, []string) {
	var eventIDs []string
	var errors []string

	for i, event := range events {
		eventID, err := s.ProcessEvent(ctx, &event)
		if err != nil {
			errors = append(errors, err.Error())
			s.log.Warn("Failed to process event in bulk",
				zap.Int("index", i),
				zap.String("type", event.Type),
				zap.Error(err))
			continue
		}
		eventIDs = append(eventIDs, eventID)
	}

	return eventIDs, errors
}

// GetMetrics retrieves aggregated analytics metrics.
func (s *EventService) GetMetrics(ctx context.Context, req *dto.GetMetricsRequest) (*dto.GetMetricsResponse, error) {
	if req.From > req.To {
		s.log.Warn("Invalid time range for metrics",
			zap.Int64("from", req.From),
			zap.Int64("to", req.To))
		return nil, fmt.Errorf("from timestamp must be less than or equal to to timestamp")
	}

	if req.GroupBy != "" {
		validGroupBy := map[string]bool{"short_code": true, "hour": true, "day": true}
		if !validGroupBy[req.GroupBy] {
			return nil, fmt.Errorf("invalid group_by value: %s (supported: short_code, hour, day)", req.GroupBy)
		}

		rangeSeconds := req.To - req.From
		if req.GroupBy == "hour" && rangeSeconds > 90*24*3600 {
			return nil, fmt.Errorf("time range too large for hourly grouping (max 90 days, got %d days)", rangeSeconds/(24*3600))
		}
	}

	query := repository.MetricsQuery{
		EventType: req.EventType,
		From:      req.From,
		To:        req.To,
		GroupBy:   req.GroupBy,
	}

	result, err := s.clicks.GetMetrics(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics from repository: %w", err)
	}

	response := &dto.GetMetricsResponse{
		EventType:   req.EventType,
		From:        req.From,
		To:          req.To,
		TotalCount:  result.TotalCount,
		UniqueUsers: result.UniqueUsers,
		GroupBy:     req.GroupBy,
		Groups:      make([]dto.MetricsGroupData, 0, len(result.Groups)),
	}
	for _, group := range result.Groups {
		response.Groups = append(response.Groups, dto.MetricsGroupData{
			GroupValue: group.GroupValue,
			TotalCount: group.TotalCount,
		})
	}

	return response, nil
}
