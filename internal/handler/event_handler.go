package handler

import (
	"net/http"

	"tixify/internal/model"
	"tixify/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service     service.EventService
	tierService service.TierService
}

func NewEventHandler(service service.EventService, tierService service.TierService) *EventHandler {
	return &EventHandler{service: service, tierService: tierService}
}

func (h *EventHandler) RegisterRoutes(public, organizer *gin.RouterGroup) {
	public.GET("events/:uuid", h.GetPublished)
	public.GET("events/:uuid/tiers", h.ListTiers)

	organizer.GET("events", h.List)
	organizer.POST("events", h.Create)
	organizer.PUT("events/:uuid", h.Update)
	organizer.POST("events/:uuid/publish", h.Publish)
	organizer.PUT("events/:uuid/tiers", h.ReplaceTiers)
	organizer.PATCH("tiers/:id", h.UpdateTier)
}

// ReplaceTiersRequest 整批設定票種
type ReplaceTiersRequest struct {
	Tiers []model.TierInput `json:"tiers" binding:"required,min=1,dive"`
}

type TierURI struct {
	ID int `uri:"id" binding:"required,min=1"`
}

func (h *EventHandler) GetPublished(c *gin.Context) {
	eventID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	event, err := h.service.GetPublished(c.Request.Context(), eventID)
	if err != nil {
		handleError(c, err, "GetPublished")
		return
	}
	handleSuccess(c, event, http.StatusOK)
}

func (h *EventHandler) ListTiers(c *gin.Context) {
	eventID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	tiers, err := h.tierService.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		handleError(c, err, "ListTiers")
		return
	}
	handleSuccess(c, tiers, http.StatusOK)
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.ListByOrganizer(c.Request.Context(), actor(c))
	if err != nil {
		handleError(c, err, "List")
		return
	}
	handleSuccess(c, events, http.StatusOK)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req model.CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	event, err := h.service.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		handleError(c, err, "Create")
		return
	}
	handleSuccess(c, event, http.StatusCreated)
}

func (h *EventHandler) Update(c *gin.Context) {
	eventID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	var params model.UpdateEventParams
	if err := BindJson(c, &params); err != nil {
		return
	}
	event, err := h.service.Update(c.Request.Context(), actor(c), eventID, params)
	if err != nil {
		handleError(c, err, "Update")
		return
	}
	handleSuccess(c, event, http.StatusOK)
}

func (h *EventHandler) Publish(c *gin.Context) {
	eventID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	event, err := h.service.Publish(c.Request.Context(), actor(c), eventID)
	if err != nil {
		handleError(c, err, "Publish")
		return
	}
	handleSuccess(c, event, http.StatusOK)
}

func (h *EventHandler) ReplaceTiers(c *gin.Context) {
	eventID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	var req ReplaceTiersRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	tiers, err := h.tierService.ReplaceTiers(c.Request.Context(), actor(c), eventID, req.Tiers)
	if err != nil {
		handleError(c, err, "ReplaceTiers")
		return
	}
	handleSuccess(c, tiers, http.StatusOK)
}

func (h *EventHandler) UpdateTier(c *gin.Context) {
	var uri TierURI
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var params model.UpdateTierParams
	if err := BindJson(c, &params); err != nil {
		return
	}
	tier, err := h.tierService.UpdateTier(c.Request.Context(), actor(c), uri.ID, params)
	if err != nil {
		handleError(c, err, "UpdateTier")
		return
	}
	handleSuccess(c, tier, http.StatusOK)
}
