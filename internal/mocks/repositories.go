package mocks

import (
	"context"
	"time"

	"tixify/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type EventRepositoryMock struct {
	mock.Mock
}

func (m *EventRepositoryMock) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) ListByOrganizer(ctx context.Context, organizerID string) ([]*model.Event, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) FindByID(ctx context.Context, id int) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) Publish(ctx context.Context, id int) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

type TierRepositoryMock struct {
	mock.Mock
}

func (m *TierRepositoryMock) ListByEventID(ctx context.Context, eventID int) ([]*model.TicketTier, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TicketTier), args.Error(1)
}

func (m *TierRepositoryMock) FindByID(ctx context.Context, id int) (*model.TicketTier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketTier), args.Error(1)
}

func (m *TierRepositoryMock) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.TicketTier, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketTier), args.Error(1)
}

func (m *TierRepositoryMock) ListByEventIDWithLock(ctx context.Context, tx pgx.Tx, eventID int) ([]*model.TicketTier, error) {
	args := m.Called(ctx, tx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TicketTier), args.Error(1)
}

func (m *TierRepositoryMock) ReplaceForEvent(ctx context.Context, tx pgx.Tx, eventID int, tiers []model.TierInput) ([]*model.TicketTier, error) {
	args := m.Called(ctx, tx, eventID, tiers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TicketTier), args.Error(1)
}

func (m *TierRepositoryMock) Update(ctx context.Context, tx pgx.Tx, tier *model.TicketTier) (*model.TicketTier, error) {
	args := m.Called(ctx, tx, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketTier), args.Error(1)
}

func (m *TierRepositoryMock) DecreaseAvailable(ctx context.Context, tx pgx.Tx, eventID int, tierID int, quantity int) (int, decimal.Decimal, error) {
	args := m.Called(ctx, tx, eventID, tierID, quantity)
	return args.Int(0), args.Get(1).(decimal.Decimal), args.Error(2)
}

type TicketRepositoryMock struct {
	mock.Mock
}

func (m *TicketRepositoryMock) FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) FindByPaymentReference(ctx context.Context, reference string) ([]*model.Ticket, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) ListByEventID(ctx context.Context, eventID int) ([]*model.Ticket, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) MarkEmailed(ctx context.Context, ticketID uuid.UUID) error {
	args := m.Called(ctx, ticketID)
	return args.Error(0)
}

// Create accepts a func(*model.Ticket) *model.Ticket return value to echo
// the inserted ticket back.
func (m *TicketRepositoryMock) Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error) {
	args := m.Called(ctx, tx, ticket)
	if fn, ok := args.Get(0).(func(*model.Ticket) *model.Ticket); ok {
		return fn(ticket), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) MarkUsed(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID, at time.Time) (*model.Ticket, bool, error) {
	args := m.Called(ctx, tx, ticketID, at)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Ticket), args.Bool(1), args.Error(2)
}

func (m *TicketRepositoryMock) UndoUsed(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID) (*model.Ticket, bool, error) {
	args := m.Called(ctx, tx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Ticket), args.Bool(1), args.Error(2)
}

type CheckInAuditRepositoryMock struct {
	mock.Mock
}

func (m *CheckInAuditRepositoryMock) Record(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID, action model.CheckInAction, actor string) error {
	args := m.Called(ctx, tx, ticketID, action, actor)
	return args.Error(0)
}

func (m *CheckInAuditRepositoryMock) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*model.CheckInAudit, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CheckInAudit), args.Error(1)
}
