package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/dto"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue"
)

// MockEventService is a mock implementation of service.EventServicer
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) ProcessEvent(ctx context.Context, req *dto.PublishEventRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockEventService) ProcessBulkEvents(ctx context.Context, events []dto.PublishEventRequest) ([]string, []string) {
	args := m.Called(ctx, events)
	var ids, errs []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	if args.Get(1) != nil {
		errs = args.Get(1).([]string)
	}
	return ids, errs
}

func (m *MockEventService) GetMetrics(ctx context.Context, req *dto.GetMetricsRequest) (*dto.GetMetricsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.GetMetricsResponse), args.Error(1)
}

// MockPreferenceService is a mock implementation of service.PreferenceServicer
type MockPreferenceService struct {
	mock.Mock
}

func (m *MockPreferenceService) Get(ctx context.Context, userID string) (*dto.PreferenceResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PreferenceResponse), args.Error(1)
}

func (m *MockPreferenceService) Update(ctx context.Context, userID string, req *dto.UpdatePreferenceRequest) (*dto.PreferenceResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PreferenceResponse), args.Error(1)
}

func (m *MockPreferenceService) AddDevice(ctx context.Context, userID string, req *dto.AddDeviceTokenRequest) (*dto.PreferenceResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PreferenceResponse), args.Error(1)
}

func (m *MockPreferenceService) RemoveDevice(ctx context.Context, userID, token string) (*dto.PreferenceResponse, error) {
	args := m.Called(ctx, userID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PreferenceResponse), args.Error(1)
}

func newTestHandler(events *MockEventService, prefs *MockPreferenceService) *Handler {
	gin.SetMode(gin.TestMode)
	return NewHandler(events, prefs, nil, zap.NewNop())
}

func TestHandler_HealthCheck(t *testing.T) {
	h := newTestHandler(new(MockEventService), new(MockPreferenceService))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_PublishEvent_Accepted(t *testing.T) {
	events := new(MockEventService)
	h := newTestHandler(events, new(MockPreferenceService))

	events.On("ProcessEvent", mock.Anything, mock.Anything).Return("abc123def456", nil)

	body := `{"type":"url.created","payload":{"user_id":"user123","short_code":"abc123"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp dto.PublishEventResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "abc123def456", resp.EventID)
	assert.Equal(t, "accepted", resp.Status)
	events.AssertExpectations(t)
}

func TestHandler_PublishEvent_MissingFields(t *testing.T) {
	events := new(MockEventService)
	h := newTestHandler(events, new(MockPreferenceService))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewBufferString(`{"type":"url.created"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	events.AssertNotCalled(t, "ProcessEvent")
}

func TestHandler_PublishEvent_UnknownType(t *testing.T) {
	events := new(MockEventService)
	h := newTestHandler(events, new(MockPreferenceService))

	events.On("ProcessEvent", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("%w: %q", queue.ErrUnknownEventType, "url.deleted"))

	body := `{"type":"url.deleted","payload":{"user_id":"user123"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unknown_event_type", resp.Error)
}

func TestHandler_PublishEvent_PublishFailure(t *testing.T) {
	events := new(MockEventService)
	h := newTestHandler(events, new(MockPreferenceService))

	events.On("ProcessEvent", mock.Anything, mock.Anything).
		Return("", errors.New("broker unavailable"))

	body := `{"type":"url.created","payload":{"user_id":"user123"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandler_PublishEventsBulk(t *testing.T) {
	events := new(MockEventService)
	h := newTestHandler(events, new(MockPreferenceService))

	events.On("ProcessBulkEvents", mock.Anything, mock.Anything).
		Return([]string{"id1", "id2"}, []string{"unknown event type"})

	body := `{"events":[
		{"type":"url.created","payload":{"user_id":"u1"}},
		{"type":"user.created","payload":{"user_id":"u2"}},
		{"type":"bogus","payload":{"user_id":"u3"}}
	]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/bulk", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp dto.PublishBulkEventsResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 1, resp.Rejected)
}

func TestHandler_GetMetrics(t *testing.T) {
	events := new(MockEventService)
	h := newTestHandler(events, new(MockPreferenceService))

	events.On("GetMetrics", mock.Anything, mock.MatchedBy(func(req *dto.GetMetricsRequest) bool {
		return req.EventType == "url.redirect" && req.From == 1000 && req.To == 2000
	})).Return(&dto.GetMetricsResponse{
		EventType:  "url.redirect",
		From:       1000,
		To:         2000,
		TotalCount: 42,
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/metrics?event_type=url.redirect&from=1000&to=2000", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.GetMetricsResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(42), resp.TotalCount)
}

func TestHandler_GetMetrics_MissingParams(t *testing.T) {
	events := new(MockEventService)
	h := newTestHandler(events, new(MockPreferenceService))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/metrics", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	events.AssertNotCalled(t, "GetMetrics")
}

func TestHandler_GetPreferences(t *testing.T) {
	prefs := new(MockPreferenceService)
	h := newTestHandler(new(MockEventService), prefs)

	prefs.On("Get", mock.Anything, "user123").Return(&dto.PreferenceResponse{
		UserID:         "user123",
		InAppEnabled:   true,
		EmailFrequency: "immediate",
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/user123/preferences", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.PreferenceResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user123", resp.UserID)
	assert.True(t, resp.InAppEnabled)
	prefs.AssertExpectations(t)
}

func TestHandler_UpdatePreferences(t *testing.T) {
	prefs := new(MockPreferenceService)
	h := newTestHandler(new(MockEventService), prefs)

	prefs.On("Update", mock.Anything, "user123", mock.MatchedBy(func(req *dto.UpdatePreferenceRequest) bool {
		return req.EmailEnabled != nil && *req.EmailEnabled
	})).Return(&dto.PreferenceResponse{UserID: "user123", EmailEnabled: true}, nil)

	body := `{"email_enabled":true}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/users/user123/preferences", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	prefs.AssertExpectations(t)
}

func TestHandler_AddDeviceToken(t *testing.T) {
	prefs := new(MockPreferenceService)
	h := newTestHandler(new(MockEventService), prefs)

	prefs.On("AddDevice", mock.Anything, "user123", mock.MatchedBy(func(req *dto.AddDeviceTokenRequest) bool {
		return req.Token == "token-1" && req.Device == "pixel-8"
	})).Return(&dto.PreferenceResponse{UserID: "user123"}, nil)

	body := `{"token":"token-1","device":"pixel-8"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/users/user123/devices", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	prefs.AssertExpectations(t)
}

func TestHandler_AddDeviceToken_MissingToken(t *testing.T) {
	prefs := new(MockPreferenceService)
	h := newTestHandler(new(MockEventService), prefs)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/users/user123/devices", bytes.NewBufferString(`{"device":"pixel-8"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	prefs.AssertNotCalled(t, "AddDevice")
}

func TestHandler_RemoveDeviceToken(t *testing.T) {
	prefs := new(MockPreferenceService)
	h := newTestHandler(new(MockEventService), prefs)

	prefs.On("RemoveDevice", mock.Anything, "user123", "token-1").
		Return(&dto.PreferenceResponse{UserID: "user123"}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/users/user123/devices/token-1", nil)
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	prefs.AssertExpectations(t)
}
