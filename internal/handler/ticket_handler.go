package handler

import (
	"fmt"
	"net/http"

	"tixify/internal/model"
	"tixify/internal/service"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(public, organizer, door *gin.RouterGroup) {
	public.GET("tickets/:uuid/pdf", h.DownloadPDF)
	public.POST("tickets/:uuid/resend", h.Resend)

	organizer.GET("events/:uuid/tickets", h.ListByEvent)

	door.POST("tickets/:uuid/validate", h.Validate)
	door.POST("tickets/:uuid/check-in", h.CheckIn)
	door.POST("tickets/:uuid/undo-check-in", h.UndoCheckIn)
	door.GET("tickets/:uuid/check-ins", h.History)
}

// ValidateRequest 掃到的 QR 內容
type ValidateRequest struct {
	Payload string `json:"payload" binding:"required"`
}

func (h *TicketHandler) DownloadPDF(c *gin.Context) {
	ticketID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	pdf, ticket, err := h.service.Issue(c.Request.Context(), ticketID)
	if err != nil {
		handleError(c, err, "DownloadPDF")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, ticket.TicketID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *TicketHandler) Resend(c *gin.Context) {
	ticketID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	if err := h.service.Resend(c.Request.Context(), ticketID); err != nil {
		handleError(c, err, "Resend")
		return
	}
	handleSuccess(c, nil, http.StatusAccepted)
}

func (h *TicketHandler) ListByEvent(c *gin.Context) {
	eventID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	tickets, err := h.service.ListByEvent(c.Request.Context(), actor(c), eventID)
	if err != nil {
		handleError(c, err, "ListByEvent")
		return
	}
	handleSuccess(c, tickets, http.StatusOK)
}

// Validate 只回報狀態，不會改變票券
func (h *TicketHandler) Validate(c *gin.Context) {
	ticketID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	var req ValidateRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	result, err := h.service.Validate(c.Request.Context(), caller(c), ticketID, req.Payload)
	if err != nil {
		handleError(c, err, "Validate")
		return
	}
	handleSuccess(c, result, http.StatusOK)
}

func (h *TicketHandler) CheckIn(c *gin.Context) {
	ticketID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	result, err := h.service.MarkUsed(c.Request.Context(), caller(c), ticketID)
	if err != nil {
		handleError(c, err, "CheckIn")
		return
	}
	handleSuccess(c, result, checkInStatus(result))
}

func (h *TicketHandler) UndoCheckIn(c *gin.Context) {
	ticketID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	result, err := h.service.UndoUsed(c.Request.Context(), caller(c), ticketID)
	if err != nil {
		handleError(c, err, "UndoCheckIn")
		return
	}
	handleSuccess(c, result, checkInStatus(result))
}

func (h *TicketHandler) History(c *gin.Context) {
	ticketID, ok := uuidParam(c, "uuid")
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), caller(c), ticketID)
	if err != nil {
		handleError(c, err, "History")
		return
	}
	handleSuccess(c, entries, http.StatusOK)
}

// 重複掃碼不是錯誤，但讓前端能從狀態碼分辨
func checkInStatus(result *model.CheckInResult) int {
	switch result.Outcome {
	case model.CheckInAlreadyUsed, model.CheckInNotUsed:
		return http.StatusConflict
	default:
		return http.StatusOK
	}
}
