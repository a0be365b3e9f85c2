package model

import (
	"time"

	"github.com/google/uuid"
)

// Actor 在門口操作的人，以及他代表的主辦單位
type Actor struct {
	ID          string
	OrganizerID string
}

type ValidationStatus string

const (
	ValidationValid       ValidationStatus = "valid"
	ValidationInvalid     ValidationStatus = "invalid"
	ValidationAlreadyUsed ValidationStatus = "already_used"
)

// ValidationResult is what door staff see after a scan.
type ValidationResult struct {
	Status       ValidationStatus `json:"status"`
	Message      string           `json:"message"`
	TicketID     *uuid.UUID       `json:"ticket_id,omitempty"`
	CustomerName string           `json:"customer_name,omitempty"`
	Quantity     int              `json:"quantity,omitempty"`
	TierID       int              `json:"tier_id,omitempty"`
	UsedAt       *time.Time       `json:"used_at,omitempty"`
}

func InvalidTicket() ValidationResult {
	return ValidationResult{Status: ValidationInvalid, Message: "Invalid ticket"}
}

type CheckInOutcome string

const (
	CheckInAccepted    CheckInOutcome = "checked_in"
	CheckInAlreadyUsed CheckInOutcome = "already_used"
	CheckInReverted    CheckInOutcome = "reverted"
	CheckInNotUsed     CheckInOutcome = "not_used"
)

type CheckInResult struct {
	Outcome CheckInOutcome `json:"outcome"`
	Ticket  *Ticket        `json:"ticket"`
}

type CheckInAction string

const (
	ActionCheckIn     CheckInAction = "check_in"
	ActionUndoCheckIn CheckInAction = "undo_check_in"
)

type CheckInAudit struct {
	ID        int           `json:"id" db:"id"`
	TicketID  uuid.UUID     `json:"ticket_id" db:"ticket_id"`
	Action    CheckInAction `json:"action" db:"action"`
	Actor     string        `json:"actor" db:"actor"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}
