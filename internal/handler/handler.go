package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/dto"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/service"
)

// Handler serves the producer-side event API and the preference API.
type Handler struct {
	eventService      service.EventServicer
	preferenceService service.PreferenceServicer
	router            *gin.Engine
	log               *zap.Logger
}

// NewHandler wires the routes. The rate limiter may be nil (tests,
// environments without redis).
func NewHandler(eventService service.EventServicer, preferenceService service.PreferenceServicer, limiter *RateLimiter, log *zap.Logger) *Handler {
	h := &Handler{
		eventService:      eventService,
		preferenceService: preferenceService,
		router:            gin.Default(),
		log:               log,
	}

	h.registerRoutes(limiter)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes(limiter *RateLimiter) {
	h.router.Use(cors.Default())
	h.router.GET("/health", h.healthCheck)

	v1 := h.router.Group("/v1")
	if limiter != nil {
		v1.Use(limiter.Middleware())
	}
	{
		v1.POST("/events", h.publishEvent)
		v1.POST("/events/bulk", h.publishEventsBulk)
		v1.GET("/metrics", h.getMetrics)

		v1.GET("/users/:id/preferences", h.getPreferences)
		v1.PUT("/users/:id/preferences", h.updatePreferences)
		v1.POST("/users/:id/devices", h.addDeviceToken)
		v1.DELETE("/users/:id/devices/:token", h.removeDeviceToken)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) publishEvent(c *gin.Context) {
	var req dto.PublishEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	eventID, err := h.eventService.ProcessEvent(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, queue.ErrUnknownEventType) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unknown_event_type", Message: err.Error()})
			return
		}
		h.log.Error("Failed to publish event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "publish_failed", Message: "failed to publish event"})
		return
	}

	c.JSON(http.StatusAccepted, dto.PublishEventResponse{EventID: eventID, Status: "accepted"})
}

func (h *Handler) publishEventsBulk(c *gin.Context) {
	var req dto.PublishEventsBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	eventIDs, errs := h.eventService.ProcessBulkEvents(c.Request.Context(), req.Events)

	c.JSON(http.StatusAccepted, dto.PublishBulkEventsResponse{
		Accepted: len(eventIDs),
		Rejected: len(errs),
		EventIDs: eventIDs,
		Errors:   errs,
	})
}

func (h *Handler) getMetrics(c *gin.Context) {
	var req dto.GetMetricsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	resp, err := h.eventService.GetMetrics(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "metrics_error", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPreferences(c *gin.Context) {
	resp, err := h.preferenceService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Error("Failed to get preferences", zap.String("user_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "preference_error", Message: "failed to load preferences"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updatePreferences(c *gin.Context) {
	var req dto.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	resp, err := h.preferenceService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found"})
			return
		}
		h.log.Error("Failed to update preferences", zap.String("user_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "preference_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addDeviceToken(c *gin.Context) {
	var req dto.AddDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	resp, err := h.preferenceService.AddDevice(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.log.Error("Failed to add device token", zap.String("user_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "device_token_error", Message: "failed to add device token"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) removeDeviceToken(c *gin.Context) {
	resp, err := h.preferenceService.RemoveDevice(c.Request.Context(), c.Param("id"), c.Param("token"))
	if err != nil {
		h.log.Error("Failed to remove device token", zap.String("user_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "device_token_error", Message: "failed to remove device token"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
