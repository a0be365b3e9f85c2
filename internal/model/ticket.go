package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketStatus 票券狀態
type TicketStatus string

const (
	TicketStatusCreated TicketStatus = "created"
	TicketStatusEmailed TicketStatus = "emailed"
	TicketStatusUsed    TicketStatus = "used"
)

// Ticket is one purchase line: quantity units of a single tier.
type Ticket struct {
	ID               int             `json:"-" db:"id"`
	TicketID         uuid.UUID       `json:"ticket_id" db:"ticket_id"`
	EventID          int             `json:"-" db:"event_id"`
	TierID           int             `json:"tier_id" db:"tier_id"`
	Quantity         int             `json:"quantity" db:"quantity"`
	TotalPrice       decimal.Decimal `json:"total_price" db:"total_price"`
	CustomerName     string          `json:"customer_name" db:"customer_name"`
	CustomerEmail    string          `json:"customer_email" db:"customer_email"`
	Status           TicketStatus    `json:"status" db:"status"`
	StatusBeforeUse  *TicketStatus   `json:"-" db:"status_before_use"`
	QRCode           string          `json:"qr_code,omitempty" db:"qr_code"`
	PaymentReference string          `json:"payment_reference" db:"payment_reference"`
	LineIndex        int             `json:"line_index" db:"line_index"`
	UsedAt           *time.Time      `json:"used_at,omitempty" db:"used_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

func (t *Ticket) IsUsed() bool {
	return t.Status == TicketStatusUsed
}
