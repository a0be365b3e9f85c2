package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type LineItem struct {
	TierID    int             `json:"tier_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PaymentConfirmation is the already captured payment handed over by the
// payment processor integration. Reference doubles as the idempotency key.
type PaymentConfirmation struct {
	Provider       string          `json:"provider"`
	Reference      string          `json:"reference" binding:"required"`
	AmountCaptured decimal.Decimal `json:"amount_captured"`
	Currency       string          `json:"currency"`
}

// CheckoutRequest 結帳請求
type CheckoutRequest struct {
	EventID   uuid.UUID           `json:"event_id" binding:"required"`
	Customer  Customer            `json:"customer"`
	LineItems []LineItem          `json:"line_items" binding:"required,min=1,dive"`
	Payment   PaymentConfirmation `json:"payment"`
}

func (r CheckoutRequest) Validate() bool {
	if r.EventID == uuid.Nil || len(r.LineItems) == 0 {
		return false
	}
	if strings.TrimSpace(r.Customer.Name) == "" || !strings.Contains(r.Customer.Email, "@") {
		return false
	}
	if strings.TrimSpace(r.Payment.Reference) == "" || r.Payment.AmountCaptured.IsNegative() {
		return false
	}
	for _, item := range r.LineItems {
		if item.TierID <= 0 || item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return false
		}
	}
	return true
}

type CheckoutResult struct {
	Tickets []*Ticket `json:"tickets"`
	// Replayed is true when the payment reference had already been checked out.
	Replayed bool `json:"replayed"`
	// DeliveryPending lists tickets whose e-mail delivery could not be queued.
	DeliveryPending []uuid.UUID `json:"delivery_pending,omitempty"`
}

type IssuanceJob struct {
	TicketID   uuid.UUID `json:"ticket_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// ReconciliationCase records a payment that was captured without tickets
// being issued for it.
type ReconciliationCase struct {
	PaymentReference string          `json:"payment_reference"`
	Provider         string          `json:"provider"`
	AmountCaptured   decimal.Decimal `json:"amount_captured"`
	Currency         string          `json:"currency"`
	EventID          uuid.UUID       `json:"event_id"`
	CustomerEmail    string          `json:"customer_email"`
	LineIndex        int             `json:"line_index"`
	TierID           int             `json:"tier_id"`
	Reason           string          `json:"reason"`
	OccurredAt       time.Time       `json:"occurred_at"`
}
