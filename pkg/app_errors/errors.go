package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound          = errors.New("event not found")
	ErrTierNotFound           = errors.New("ticket tier not found")
	ErrTicketNotFound         = errors.New("ticket not found")
	ErrInsufficientInventory  = errors.New("insufficient inventory")
	ErrInvalidInput           = errors.New("invalid input")
	ErrSlugTaken              = errors.New("slug already used by this organizer")
	ErrEventNotPublished      = errors.New("event not published")
	ErrEventAlreadyPublished  = errors.New("event already published")
	ErrPublishRequirements    = errors.New("event is missing fields required for publishing")
	ErrTiersLocked            = errors.New("tiers cannot be replaced after tickets were sold")
	ErrPriceMismatch          = errors.New("unit price does not match tier price")
	ErrPaymentAmountMismatch  = errors.New("captured amount does not match order total")
	ErrCheckoutInProgress     = errors.New("checkout already in progress for this payment")
	ErrIssuanceDeliveryFailed = errors.New("ticket delivery failed")
	ErrTierNotWarmed          = errors.New("tier inventory not loaded in cache")
	ErrInvalidTicketPayload   = errors.New("invalid ticket payload")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
)

// InsufficientInventoryError reports the availability observed when a
// decrement was refused.
type InsufficientInventoryError struct {
	TierID    int
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("tier %d: requested %d, only %d left", e.TierID, e.Requested, e.Available)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

// CheckoutError is returned when a checkout fails after the payment was
// captured upstream. LineIndex is -1 when no single line item is at fault.
type CheckoutError struct {
	PaymentReference     string
	LineIndex            int
	TierID               int
	ReconciliationQueued bool
	Err                  error
}

func (e *CheckoutError) Error() string {
	if e.LineIndex >= 0 {
		return fmt.Sprintf("checkout %s failed at line item %d (tier %d): %v", e.PaymentReference, e.LineIndex, e.TierID, e.Err)
	}
	return fmt.Sprintf("checkout %s failed: %v", e.PaymentReference, e.Err)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}
