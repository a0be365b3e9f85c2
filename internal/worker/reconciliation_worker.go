package worker

import (
	"context"
	"sync"

	"tixify/internal/metrics"
	"tixify/internal/model"
	"tixify/internal/queue"
	"tixify/pkg/logger"

	"go.uber.org/zap"
)

// ReconciliationWorker drains captured-but-unfulfilled payments into the
// error log. Refunds stay a manual operator task.
type ReconciliationWorker struct {
	queue queue.Queue[model.ReconciliationCase]
	// onCase is a test hook
	onCase func(*model.ReconciliationCase)
	wg     sync.WaitGroup
}

func NewReconciliationWorker(q queue.Queue[model.ReconciliationCase]) *ReconciliationWorker {
	return &ReconciliationWorker{queue: q}
}

func (w *ReconciliationWorker) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		metrics.WorkerStarted("reconciliation")
		defer metrics.WorkerStopped("reconciliation")

		log := logger.WithComponent("reconciliation")
		for msg := range msgs {
			c := msg.Data
			if c == nil {
				msg.Nack(false)
				continue
			}
			log.Error("payment captured without tickets",
				zap.String("payment_reference", c.PaymentReference),
				zap.String("provider", c.Provider),
				zap.String("amount", c.AmountCaptured.String()),
				zap.String("currency", c.Currency),
				zap.String("event_id", c.EventID.String()),
				zap.String("customer_email", c.CustomerEmail),
				zap.Int("line_index", c.LineIndex),
				zap.Int("tier_id", c.TierID),
				zap.String("reason", c.Reason),
				zap.Time("occurred_at", c.OccurredAt),
			)
			if w.onCase != nil {
				w.onCase(c)
			}
			msg.Ack()
		}
	}()
	return nil
}

func (w *ReconciliationWorker) Wait() {
	w.wg.Wait()
}
