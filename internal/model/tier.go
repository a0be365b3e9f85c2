package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketTier 票種：價格與庫存
type TicketTier struct {
	ID        int             `json:"id" db:"id"`
	EventID   int             `json:"-" db:"event_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Available int             `json:"available" db:"available"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

func (t *TicketTier) Sold() int {
	return t.Quantity - t.Available
}

type TierInput struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" binding:"required,min=1"`
}

func (in TierInput) Valid() bool {
	return in.Name != "" && in.Quantity > 0 && !in.Price.IsNegative()
}

type UpdateTierParams struct {
	Name     *string          `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Quantity *int             `json:"quantity"`
}

func (p UpdateTierParams) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Quantity == nil
}

// NextAvailable computes the remaining count after the quantity changes to
// newQuantity. Units already sold stay sold; ok is false when newQuantity
// would drop below them.
func (t *TicketTier) NextAvailable(newQuantity int) (available int, ok bool) {
	sold := t.Sold()
	if newQuantity <= 0 || newQuantity < sold {
		return t.Available, false
	}
	return newQuantity - sold, true
}
