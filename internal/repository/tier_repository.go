package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tixify/internal/model"
	apperrors "tixify/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TierRepository interface {
	ListByEventID(ctx context.Context, eventID int) ([]*model.TicketTier, error)
	FindByID(ctx context.Context, id int) (*model.TicketTier, error)

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.TicketTier, error)
	ListByEventIDWithLock(ctx context.Context, tx pgx.Tx, eventID int) ([]*model.TicketTier, error)
	ReplaceForEvent(ctx context.Context, tx pgx.Tx, eventID int, tiers []model.TierInput) ([]*model.TicketTier, error)
	Update(ctx context.Context, tx pgx.Tx, tier *model.TicketTier) (*model.TicketTier, error)
	// DecreaseAvailable is the inventory ledger decrement. It returns the
	// remaining count and the tier's unit price.
	DecreaseAvailable(ctx context.Context, tx pgx.Tx, eventID int, tierID int, quantity int) (int, decimal.Decimal, error)
}

type TierRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTierRepository(pool *pgxpool.Pool) TierRepository {
	return &TierRepositoryImpl{
		pool: pool,
	}
}

const tierColumns = `id, event_id, name, price, quantity, available, created_at, updated_at`

func scanTier(row pgx.Row) (*model.TicketTier, error) {
	var tier model.TicketTier
	err := row.Scan(
		&tier.ID,
		&tier.EventID,
		&tier.Name,
		&tier.Price,
		&tier.Quantity,
		&tier.Available,
		&tier.CreatedAt,
		&tier.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

func (r *TierRepositoryImpl) ListByEventID(ctx context.Context, eventID int) ([]*model.TicketTier, error) {
	query := `
		SELECT ` + tierColumns + `
		FROM ticket_tiers
		WHERE event_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make([]*model.TicketTier, 0)
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *TierRepositoryImpl) FindByID(ctx context.Context, id int) (*model.TicketTier, error) {
	query := `SELECT ` + tierColumns + ` FROM ticket_tiers WHERE id = $1`
	return scanTier(r.pool.QueryRow(ctx, query, id))
}

func (r *TierRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.TicketTier, error) {
	query := `
		SELECT ` + tierColumns + `
		FROM ticket_tiers
		WHERE id = $1
		FOR UPDATE
	`
	return scanTier(tx.QueryRow(ctx, query, id))
}

func (r *TierRepositoryImpl) ListByEventIDWithLock(ctx context.Context, tx pgx.Tx, eventID int) ([]*model.TicketTier, error) {
	query := `
		SELECT ` + tierColumns + `
		FROM ticket_tiers
		WHERE event_id = $1
		ORDER BY id
		FOR UPDATE
	`
	rows, err := tx.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make([]*model.TicketTier, 0)
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tiers, nil
}

// ReplaceForEvent deletes every tier of the event and inserts the new list
// with available = quantity.
func (r *TierRepositoryImpl) ReplaceForEvent(ctx context.Context, tx pgx.Tx, eventID int, tiers []model.TierInput) ([]*model.TicketTier, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM ticket_tiers WHERE event_id = $1`, eventID); err != nil {
		return nil, fmt.Errorf("failed to delete tiers: %w", err)
	}

	query := `
		INSERT INTO ticket_tiers (event_id, name, price, quantity, available)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING ` + tierColumns

	created := make([]*model.TicketTier, 0, len(tiers))
	for _, in := range tiers {
		tier, err := scanTier(tx.QueryRow(ctx, query, eventID, in.Name, in.Price, in.Quantity))
		if err != nil {
			return nil, fmt.Errorf("failed to insert tier %q: %w", in.Name, err)
		}
		created = append(created, tier)
	}
	return created, nil
}

func (r *TierRepositoryImpl) Update(ctx context.Context, tx pgx.Tx, tier *model.TicketTier) (*model.TicketTier, error) {
	query := `
		UPDATE ticket_tiers
		SET name = $1, price = $2, quantity = $3, available = $4, updated_at = $5
		WHERE id = $6
		RETURNING ` + tierColumns

	return scanTier(tx.QueryRow(ctx, query,
		tier.Name, tier.Price, tier.Quantity, tier.Available, time.Now().UTC(), tier.ID,
	))
}

func (r *TierRepositoryImpl) DecreaseAvailable(ctx context.Context, tx pgx.Tx, eventID int, tierID int, quantity int) (int, decimal.Decimal, error) {
	if quantity <= 0 {
		return 0, decimal.Zero, apperrors.ErrInvalidInput
	}

	// check-and-set in one statement; the row lock serializes concurrent buyers
	query := `
		UPDATE ticket_tiers
		SET available = available - $1, updated_at = $2
		WHERE id = $3 AND event_id = $4 AND available >= $1
		RETURNING available, price
	`

	var remaining int
	var price decimal.Decimal
	err := tx.QueryRow(ctx, query, quantity, time.Now().UTC(), tierID, eventID).Scan(&remaining, &price)
	if err == nil {
		return remaining, price, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, decimal.Zero, fmt.Errorf("failed to decrease available: %w", err)
	}

	var available int
	err = tx.QueryRow(ctx,
		`SELECT available FROM ticket_tiers WHERE id = $1 AND event_id = $2`,
		tierID, eventID,
	).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, decimal.Zero, apperrors.ErrTierNotFound
		}
		return 0, decimal.Zero, err
	}

	return 0, decimal.Zero, &apperrors.InsufficientInventoryError{
		TierID:    tierID,
		Requested: quantity,
		Available: available,
	}
}
