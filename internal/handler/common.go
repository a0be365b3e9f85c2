package handler

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "tixify/pkg/app_errors"
	"tixify/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindUri(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindUri(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// uuidParam 讀取路徑上的 :uuid，格式錯誤時直接回 400
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

type errorMapping struct {
	target  error
	status  int
	message string
}

// 依序以 errors.Is 比對，CheckoutError 會 Unwrap 到原因
var errorMappings = []errorMapping{
	{apperrors.ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{apperrors.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{apperrors.ErrEventNotFound, http.StatusNotFound, "Event not found"},
	{apperrors.ErrTierNotFound, http.StatusNotFound, "Ticket tier not found"},
	{apperrors.ErrTicketNotFound, http.StatusNotFound, "Ticket not found"},
	{apperrors.ErrEventNotPublished, http.StatusConflict, "Event not published"},
	{apperrors.ErrEventAlreadyPublished, http.StatusConflict, "Event already published"},
	{apperrors.ErrSlugTaken, http.StatusConflict, "Slug already in use"},
	{apperrors.ErrPublishRequirements, http.StatusUnprocessableEntity, ""},
	{apperrors.ErrTiersLocked, http.StatusConflict, "Tiers cannot be replaced after tickets were sold"},
	{apperrors.ErrPriceMismatch, http.StatusConflict, "Unit price does not match tier price"},
	{apperrors.ErrPaymentAmountMismatch, http.StatusConflict, "Captured amount does not match order total"},
	{apperrors.ErrCheckoutInProgress, http.StatusConflict, "Checkout already in progress for this payment"},
	{apperrors.ErrIssuanceDeliveryFailed, http.StatusBadGateway, "Ticket delivery failed"},
}

func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	body := gin.H{}
	var checkoutErr *apperrors.CheckoutError
	if errors.As(err, &checkoutErr) {
		body["payment_reference"] = checkoutErr.PaymentReference
		body["reconciliation_queued"] = checkoutErr.ReconciliationQueued
		if checkoutErr.LineIndex >= 0 {
			body["line_index"] = checkoutErr.LineIndex
			body["tier_id"] = checkoutErr.TierID
		}
	}

	var inventoryErr *apperrors.InsufficientInventoryError
	if errors.As(err, &inventoryErr) {
		log.Warn("Insufficient inventory")
		body["error"] = fmt.Sprintf("only %d tickets left", inventoryErr.Available)
		body["available"] = inventoryErr.Available
		c.JSON(http.StatusConflict, body)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			log.Warn(m.target.Error())
			message := m.message
			if message == "" {
				message = err.Error()
			}
			body["error"] = message
			c.JSON(m.status, body)
			return
		}
	}

	log.Error("Unexpected error")
	body["error"] = "Internal server error"
	c.JSON(http.StatusInternalServerError, body)
}

func handleSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
