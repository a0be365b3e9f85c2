package mocks

import (
	"context"

	"tixify/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type EventServiceMock struct {
	mock.Mock
}

func (m *EventServiceMock) ListByOrganizer(ctx context.Context, organizerID string) ([]*model.Event, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *EventServiceMock) GetPublished(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Create(ctx context.Context, organizerID string, req model.CreateEventRequest) (*model.Event, error) {
	args := m.Called(ctx, organizerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Update(ctx context.Context, organizerID string, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	args := m.Called(ctx, organizerID, eventID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Publish(ctx context.Context, organizerID string, eventID uuid.UUID) (*model.Event, error) {
	args := m.Called(ctx, organizerID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

type TierServiceMock struct {
	mock.Mock
}

func (m *TierServiceMock) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.TicketTier, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TicketTier), args.Error(1)
}

func (m *TierServiceMock) ReplaceTiers(ctx context.Context, organizerID string, eventID uuid.UUID, tiers []model.TierInput) ([]*model.TicketTier, error) {
	args := m.Called(ctx, organizerID, eventID, tiers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TicketTier), args.Error(1)
}

func (m *TierServiceMock) UpdateTier(ctx context.Context, organizerID string, tierID int, params model.UpdateTierParams) (*model.TicketTier, error) {
	args := m.Called(ctx, organizerID, tierID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketTier), args.Error(1)
}

type CheckoutServiceMock struct {
	mock.Mock
}

func (m *CheckoutServiceMock) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResult), args.Error(1)
}

type TicketServiceMock struct {
	mock.Mock
}

func (m *TicketServiceMock) Issue(ctx context.Context, ticketID uuid.UUID) ([]byte, *model.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(1) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(*model.Ticket), args.Error(2)
}

func (m *TicketServiceMock) Deliver(ctx context.Context, ticketID uuid.UUID) error {
	return m.Called(ctx, ticketID).Error(0)
}

func (m *TicketServiceMock) Resend(ctx context.Context, ticketID uuid.UUID) error {
	return m.Called(ctx, ticketID).Error(0)
}

func (m *TicketServiceMock) Validate(ctx context.Context, actor model.Actor, ticketID uuid.UUID, payload string) (model.ValidationResult, error) {
	args := m.Called(ctx, actor, ticketID, payload)
	return args.Get(0).(model.ValidationResult), args.Error(1)
}

func (m *TicketServiceMock) MarkUsed(ctx context.Context, actor model.Actor, ticketID uuid.UUID) (*model.CheckInResult, error) {
	args := m.Called(ctx, actor, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckInResult), args.Error(1)
}

func (m *TicketServiceMock) UndoUsed(ctx context.Context, actor model.Actor, ticketID uuid.UUID) (*model.CheckInResult, error) {
	args := m.Called(ctx, actor, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckInResult), args.Error(1)
}

func (m *TicketServiceMock) History(ctx context.Context, actor model.Actor, ticketID uuid.UUID) ([]*model.CheckInAudit, error) {
	args := m.Called(ctx, actor, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CheckInAudit), args.Error(1)
}

func (m *TicketServiceMock) ListByEvent(ctx context.Context, organizerID string, eventID uuid.UUID) ([]*model.Ticket, error) {
	args := m.Called(ctx, organizerID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}
