package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/dto"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/preference"
)

// PreferenceService adapts the preference store and device token
// registry to the external API.
type PreferenceService struct {
	store    *preference.Store
	registry *preference.DeviceTokenRegistry
	log      *zap.Logger
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(store *preference.Store, registry *preference.DeviceTokenRegistry, log *zap.Logger) *PreferenceService {
	return &PreferenceService{
		store:    store,
		registry: registry,
		log:      log,
	}
}

// Get returns the user's preferences, creating defaults on first
// access.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*dto.PreferenceResponse, error) {
	pref, err := s.store.GetOrCreate(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	return toResponse(pref), nil
}

// Update merges the supplied fields into the user's preferences.
func (s *PreferenceService) Update(ctx context.Context, userID string, req *dto.UpdatePreferenceRequest) (*dto.PreferenceResponse, error) {
	upd := preference.UpdateRequest{
		Email:        req.Email,
		EmailEnabled: req.EmailEnabled,
		PushEnabled:  req.PushEnabled,
		InAppEnabled: req.InAppEnabled,
	}
	if req.EmailFrequency != nil {
		freq := domain.EmailFrequency(*req.EmailFrequency)
		upd.EmailFrequency = &freq
	}
	if len(req.CategorySettings) > 0 {
		upd.Categories = make(map[domain.Category]preference.ChannelFlags, len(req.CategorySettings))
		for category, flags := range req.CategorySettings {
			upd.Categories[domain.Category(category)] = preference.ChannelFlags{
				Email: flags.Email,
				Push:  flags.Push,
				InApp: flags.InApp,
			}
		}
	}

	pref, err := s.store.Update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	return toResponse(pref), nil
}

// AddDevice registers a push token for the user.
func (s *PreferenceService) AddDevice(ctx context.Context, userID string, req *dto.AddDeviceTokenRequest) (*dto.PreferenceResponse, error) {
	pref, err := s.registry.AddToken(ctx, userID, req.Token, req.Device)
	if err != nil {
		return nil, err
	}
	return toResponse(pref), nil
}

// RemoveDevice removes a push token; removing an unknown token is a
// no-op.
func (s *PreferenceService) RemoveDevice(ctx context.Context, userID, token string) (*dto.PreferenceResponse, error) {
	pref, err := s.registry.RemoveToken(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	return toResponse(pref), nil
}

func toResponse(pref *domain.Preference) *dto.PreferenceResponse {
	resp := &dto.PreferenceResponse{
		UserID:         pref.UserID,
		Email:          pref.Email,
		EmailEnabled:   pref.EmailEnabled,
		PushEnabled:    pref.PushEnabled,
		InAppEnabled:   pref.InAppEnabled,
		EmailFrequency: string(pref.EmailFrequency),
	}
	if len(pref.CategorySettings) > 0 {
		resp.CategorySettings = make(map[string]dto.CategoryChannels, len(pref.CategorySettings))
		for _, setting := range pref.CategorySettings {
			resp.CategorySettings[string(setting.Category)] = dto.CategoryChannels{
				Email: setting.EmailEnabled,
				Push:  setting.PushEnabled,
				InApp: setting.InAppEnabled,
			}
		}
	}
	for _, token := range pref.DeviceTokens {
		resp.DeviceTokens = append(resp.DeviceTokens, dto.DeviceTokenData{
			Token:      token.Token,
			Device:     token.Device,
			LastSeenAt: token.LastSeenAt,
		})
	}
	return resp
}
