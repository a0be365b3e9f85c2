package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tixify/internal/model"
	apperrors "tixify/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error)
	FindByPaymentReference(ctx context.Context, reference string) ([]*model.Ticket, error)
	ListByEventID(ctx context.Context, eventID int) ([]*model.Ticket, error)
	// MarkEmailed moves a created ticket to emailed. Used tickets are left alone.
	MarkEmailed(ctx context.Context, ticketID uuid.UUID) error

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error)
	// MarkUsed sets status to used if it is not already. applied is false
	// when another scan got there first.
	MarkUsed(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID, at time.Time) (ticket *model.Ticket, applied bool, err error)
	// UndoUsed restores the status recorded before the ticket was used.
	UndoUsed(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID) (ticket *model.Ticket, applied bool, err error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `id, ticket_id, event_id, tier_id, quantity, total_price,
	customer_name, customer_email, status, status_before_use, qr_code,
	payment_reference, line_index, used_at, created_at, updated_at`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.EventID,
		&ticket.TierID,
		&ticket.Quantity,
		&ticket.TotalPrice,
		&ticket.CustomerName,
		&ticket.CustomerEmail,
		&ticket.Status,
		&ticket.StatusBeforeUse,
		&ticket.QRCode,
		&ticket.PaymentReference,
		&ticket.LineIndex,
		&ticket.UsedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func collectTickets(rows pgx.Rows) ([]*model.Ticket, error) {
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *TicketRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (
			ticket_id, event_id, tier_id, quantity, total_price,
			customer_name, customer_email, status, qr_code,
			payment_reference, line_index
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + ticketColumns

	created, err := scanTicket(tx.QueryRow(ctx, query,
		ticket.TicketID, ticket.EventID, ticket.TierID, ticket.Quantity, ticket.TotalPrice,
		ticket.CustomerName, ticket.CustomerEmail, model.TicketStatusCreated, ticket.QRCode,
		ticket.PaymentReference, ticket.LineIndex,
	))
	if err != nil {
		if isUniqueViolation(err) {
			// same payment reference committed by a concurrent checkout
			return nil, apperrors.ErrCheckoutInProgress
		}
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return created, nil
}

func (r *TicketRepositoryImpl) FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id = $1`
	return scanTicket(r.pool.QueryRow(ctx, query, ticketID))
}

func (r *TicketRepositoryImpl) FindByPaymentReference(ctx context.Context, reference string) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE payment_reference = $1
		ORDER BY line_index
	`
	rows, err := r.pool.Query(ctx, query, reference)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

func (r *TicketRepositoryImpl) ListByEventID(ctx context.Context, eventID int) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE event_id = $1
		ORDER BY created_at DESC, line_index
	`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

func (r *TicketRepositoryImpl) MarkEmailed(ctx context.Context, ticketID uuid.UUID) error {
	query := `
		UPDATE tickets
		SET status = $1, updated_at = $2
		WHERE ticket_id = $3 AND status = $4
	`
	tag, err := r.pool.Exec(ctx, query, model.TicketStatusEmailed, time.Now().UTC(), ticketID, model.TicketStatusCreated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// already emailed or used; only a missing ticket is an error
		var exists bool
		err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE ticket_id = $1)`, ticketID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrTicketNotFound
		}
	}
	return nil
}

func (r *TicketRepositoryImpl) MarkUsed(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID, at time.Time) (*model.Ticket, bool, error) {
	query := `
		UPDATE tickets
		SET status_before_use = status, status = $1, used_at = $2, updated_at = $2
		WHERE ticket_id = $3 AND status <> $1
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(tx.QueryRow(ctx, query, model.TicketStatusUsed, at, ticketID))
	if err == nil {
		return ticket, true, nil
	}
	if !errors.Is(err, apperrors.ErrTicketNotFound) {
		return nil, false, err
	}

	current, err := r.findInTx(ctx, tx, ticketID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *TicketRepositoryImpl) UndoUsed(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID) (*model.Ticket, bool, error) {
	query := `
		UPDATE tickets
		SET status = COALESCE(status_before_use, $1), status_before_use = NULL,
			used_at = NULL, updated_at = $2
		WHERE ticket_id = $3 AND status = $4
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(tx.QueryRow(ctx, query,
		model.TicketStatusCreated, time.Now().UTC(), ticketID, model.TicketStatusUsed,
	))
	if err == nil {
		return ticket, true, nil
	}
	if !errors.Is(err, apperrors.ErrTicketNotFound) {
		return nil, false, err
	}

	current, err := r.findInTx(ctx, tx, ticketID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *TicketRepositoryImpl) findInTx(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id = $1`
	return scanTicket(tx.QueryRow(ctx, query, ticketID))
}
