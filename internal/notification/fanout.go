package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/idempotency"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/preference"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/repository"
)

// Fanout turns one decoded event into zero or more channel-specific
// delivery requests, guided by the user's resolved preferences. Each
// dispatched channel leaves a NotificationRecord for audit and
// retention.
type Fanout struct {
	prefs   *preference.Store
	guard   *idempotency.Guard
	records repository.NotificationRepository
	sink    queue.DeliveryPublisher
	log     *zap.Logger
}

// NewFanout creates the fanout handler.
func NewFanout(prefs *preference.Store, guard *idempotency.Guard, records repository.NotificationRepository, sink queue.DeliveryPublisher, log *zap.Logger) *Fanout {
	return &Fanout{
		prefs:   prefs,
		guard:   guard,
		records: records,
		sink:    sink,
		log:     log,
	}
}

// Handle processes one event end to end. Errors returned here are
// retryable (downstream dependency failures); events that can never be
// notified are logged and acked so they do not cycle through retries.
func (f *Fanout) Handle(ctx context.Context, env *domain.Envelope) error {
	category, ok := domain.CategoryFor(env.Type)
	if !ok {
		f.log.Warn("Event type has no notification category",
			zap.String("type", string(env.Type)))
		return nil
	}

	userID, email, err := env.Recipient()
	if err != nil {
		// Permanently un-notifiable; retrying cannot fix the payload.
		f.log.Error("Skipping event without a recipient",
			zap.String("type", string(env.Type)),
			zap.String("event_id", env.EventID()),
			zap.Error(err))
		return nil
	}

	eventID := env.EventID()
	dedupeKey := fmt.Sprintf("%s:%s:%s", userID, category, eventID)

	first, err := f.guard.FirstSeen(ctx, dedupeKey)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !first {
		f.log.Info("Skipping duplicate delivery",
			zap.String("user_id", userID),
			zap.String("event_id", eventID))
		return nil
	}

	pref, err := f.prefs.GetOrCreate(ctx, userID, email)
	if err != nil {
		f.guard.Release(ctx, dedupeKey)
		return fmt.Errorf("failed to resolve preference for %s: %w", userID, err)
	}

	channels := preference.ResolveChannels(pref, category)
	for _, channel := range channels {
		if err := f.dispatch(ctx, env, pref, category, channel, eventID); err != nil {
			f.guard.Release(ctx, dedupeKey)
			return err
		}
	}

	return nil
}

// dispatch emits one delivery request and its audit record. A channel
// with nothing to deliver to (push without tokens) is skipped entirely
// and leaves no record.
func (f *Fanout) dispatch(ctx context.Context, env *domain.Envelope, pref *domain.Preference, category domain.Category, channel domain.Channel, eventID string) error {
	req := &domain.DeliveryRequest{
		UserID:          pref.UserID,
		Channel:         channel,
		Category:        category,
		SourceEventType: env.Type,
		EventID:         eventID,
		CreatedAt:       time.Now().UTC(),
	}

	switch channel {
	case domain.ChannelEmail:
		if pref.Email == "" {
			f.log.Warn("Email channel enabled but no address on record",
				zap.String("user_id", pref.UserID))
			return nil
		}
		req.Email = pref.Email
		req.Deferred = pref.EmailFrequency != domain.FrequencyImmediate
	case domain.ChannelPush:
		if len(pref.DeviceTokens) == 0 {
			return nil
		}
		tokens := make([]string, 0, len(pref.DeviceTokens))
		for _, t := range pref.DeviceTokens {
			tokens = append(tokens, t.Token)
		}
		req.DeviceTokens = tokens
	case domain.ChannelInApp:
		// The user id is all an in-app sender needs.
	}

	record := &domain.NotificationRecord{
		UserID:          pref.UserID,
		Channel:         channel,
		Category:        category,
		EventID:         eventID,
		SourceEventType: string(env.Type),
	}
	created, err := f.records.Insert(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	if !created {
		// The unique index caught a duplicate the guard missed.
		f.log.Info("Notification already recorded, skipping channel",
			zap.String("user_id", pref.UserID),
			zap.String("channel", string(channel)))
		return nil
	}

	if err := f.sink.PublishDelivery(ctx, req); err != nil {
		// Undo the claim so the retry is not suppressed by it.
		if remErr := f.records.Remove(ctx, record); remErr != nil {
			f.log.Error("Failed to undo notification record after publish failure",
				zap.String("user_id", pref.UserID),
				zap.String("channel", string(channel)),
				zap.Error(remErr))
		}
		return fmt.Errorf("failed to publish %s delivery: %w", channel, err)
	}

	f.log.Info("Delivery dispatched",
		zap.String("user_id", pref.UserID),
		zap.String("channel", string(channel)),
		zap.String("category", string(category)),
		zap.Bool("deferred", req.Deferred))
	return nil
}
