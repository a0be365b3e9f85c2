package handler

import (
	"net/http"

	"tixify/internal/model"
	"tixify/internal/service"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	service service.CheckoutService
}

func NewCheckoutHandler(service service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("checkout", h.Checkout)
}

// Checkout 付款完成後開票；同一個 payment reference 重送會拿到同一批票
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req model.CheckoutRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.Checkout(c.Request.Context(), req)
	if err != nil {
		handleError(c, err, "Checkout")
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	handleSuccess(c, result, status)
}
