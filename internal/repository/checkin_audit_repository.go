package repository

import (
	"context"

	"tixify/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckInAuditRepository 入場紀錄
type CheckInAuditRepository interface {
	Record(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID, action model.CheckInAction, actor string) error
	ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*model.CheckInAudit, error)
}

type CheckInAuditRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCheckInAuditRepository(pool *pgxpool.Pool) CheckInAuditRepository {
	return &CheckInAuditRepositoryImpl{
		pool: pool,
	}
}

func (r *CheckInAuditRepositoryImpl) Record(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID, action model.CheckInAction, actor string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO checkin_audit (ticket_id, action, actor) VALUES ($1, $2, $3)`,
		ticketID, action, actor,
	)
	return err
}

func (r *CheckInAuditRepositoryImpl) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*model.CheckInAudit, error) {
	query := `
		SELECT id, ticket_id, action, actor, created_at
		FROM checkin_audit
		WHERE ticket_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*model.CheckInAudit, 0)
	for rows.Next() {
		var entry model.CheckInAudit
		if err := rows.Scan(&entry.ID, &entry.TicketID, &entry.Action, &entry.Actor, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
