package worker

import (
	"context"
	"testing"
	"time"

	"tixify/internal/model"
	"tixify/internal/queue"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationWorker_ConsumesCases(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryQueue[model.ReconciliationCase](10)
	w := NewReconciliationWorker(q)
	seen := make(chan *model.ReconciliationCase, 1)
	w.onCase = func(c *model.ReconciliationCase) { seen <- c }
	require.NoError(t, w.Start(ctx))

	c := &model.ReconciliationCase{
		PaymentReference: "pay_123",
		AmountCaptured:   decimal.NewFromInt(50),
		EventID:          uuid.New(),
		LineIndex:        1,
		Reason:           "insufficient inventory",
		OccurredAt:       time.Now(),
	}
	require.NoError(t, q.Publish(ctx, c))

	select {
	case got := <-seen:
		assert.Equal(t, "pay_123", got.PaymentReference)
	case <-time.After(time.Second):
		t.Fatal("超時！對帳 worker 沒有處理")
	}

	// 佇列歷史仍保留，供營運查詢
	recent, err := q.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	cancel()
	w.Wait()
}
