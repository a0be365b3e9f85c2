package mocks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// FakeTx records Commit and Rollback. Every other pgx.Tx method panics,
// since repositories are mocked whenever a FakeTx is in play.
type FakeTx struct {
	pgx.Tx
	CommitErr  error
	Committed  bool
	RolledBack bool
}

func (t *FakeTx) Commit(ctx context.Context) error {
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.Committed = true
	return nil
}

func (t *FakeTx) Rollback(ctx context.Context) error {
	if t.Committed {
		return pgx.ErrTxClosed
	}
	t.RolledBack = true
	return nil
}

type TxBeginnerMock struct {
	mock.Mock
}

func (m *TxBeginnerMock) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}
