package mocks

import (
	"context"
	"time"

	"tixify/internal/issuance"
	"tixify/internal/queue"

	"github.com/stretchr/testify/mock"
)

type TierInventoryMock struct {
	mock.Mock
}

func (m *TierInventoryMock) WarmUp(ctx context.Context, tierID int, available int, quantity int) error {
	args := m.Called(ctx, tierID, available, quantity)
	return args.Error(0)
}

func (m *TierInventoryMock) Reserve(ctx context.Context, tierID int, quantity int) (int, error) {
	args := m.Called(ctx, tierID, quantity)
	return args.Int(0), args.Error(1)
}

func (m *TierInventoryMock) Release(ctx context.Context, tierID int, quantity int) error {
	args := m.Called(ctx, tierID, quantity)
	return args.Error(0)
}

func (m *TierInventoryMock) Invalidate(ctx context.Context, tierIDs ...int) error {
	args := m.Called(ctx, tierIDs)
	return args.Error(0)
}

type CheckoutLockMock struct {
	mock.Mock
}

func (m *CheckoutLockMock) Acquire(ctx context.Context, reference string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, reference, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *CheckoutLockMock) Release(ctx context.Context, reference string, token string) error {
	args := m.Called(ctx, reference, token)
	return args.Error(0)
}

type QueueMock[T any] struct {
	mock.Mock
}

func (m *QueueMock[T]) Publish(ctx context.Context, msg *T) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *QueueMock[T]) Subscribe(ctx context.Context) (<-chan queue.Delivery[T], error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery[T]), args.Error(1)
}

func (m *QueueMock[T]) Recent(ctx context.Context, n int) ([]*T, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*T), args.Error(1)
}

type MailerMock struct {
	mock.Mock
}

func (m *MailerMock) Send(ctx context.Context, msg issuance.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type RendererMock struct {
	mock.Mock
}

func (m *RendererMock) PDF(doc issuance.TicketDocument) ([]byte, error) {
	args := m.Called(doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
