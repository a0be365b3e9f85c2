package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tixify/internal/model"
	"tixify/internal/testutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool := testutil.Postgres(t)
	testutil.ResetDatabase(t, pool)
	return pool
}

func createTestEvent(t *testing.T, pool *pgxpool.Pool, organizerID, name string) *model.Event {
	t.Helper()
	startsAt := time.Now().Add(30 * 24 * time.Hour).UTC()
	location := "Main Hall"
	event, err := NewEventRepository(pool).Create(context.Background(), &model.Event{
		EventID:     uuid.New(),
		OrganizerID: organizerID,
		Name:        name,
		Slug:        model.Slugify(name),
		StartsAt:    &startsAt,
		Location:    &location,
		Template:    model.TemplateStandard,
	})
	require.NoError(t, err)
	return event
}

func createTestTiers(t *testing.T, pool *pgxpool.Pool, eventID int, inputs ...model.TierInput) []*model.TicketTier {
	t.Helper()
	var tiers []*model.TicketTier
	withTx(t, pool, func(tx pgx.Tx) {
		var err error
		tiers, err = NewTierRepository(pool).ReplaceForEvent(context.Background(), tx, eventID, inputs)
		require.NoError(t, err)
	})
	return tiers
}

func createTestTicket(t *testing.T, pool *pgxpool.Pool, event *model.Event, tier *model.TicketTier, reference string, line int) *model.Ticket {
	t.Helper()
	var ticket *model.Ticket
	withTx(t, pool, func(tx pgx.Tx) {
		var err error
		ticket, err = NewTicketRepository(pool).Create(context.Background(), tx, &model.Ticket{
			TicketID:         uuid.New(),
			EventID:          event.ID,
			TierID:           tier.ID,
			Quantity:         1,
			TotalPrice:       tier.Price,
			CustomerName:     "Ada",
			CustomerEmail:    "ada@example.com",
			QRCode:           fmt.Sprintf("qr-%s-%d", reference, line),
			PaymentReference: reference,
			LineIndex:        line,
		})
		require.NoError(t, err)
	})
	return ticket
}

func withTx(t *testing.T, pool *pgxpool.Pool, fn func(tx pgx.Tx)) {
	t.Helper()
	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	fn(tx)
	require.NoError(t, tx.Commit(ctx))
}

func tierInput(name string, price int64, quantity int) model.TierInput {
	return model.TierInput{Name: name, Price: decimal.NewFromInt(price), Quantity: quantity}
}
