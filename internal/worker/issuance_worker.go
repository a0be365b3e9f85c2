package worker

import (
	"context"
	"errors"
	"sync"

	"tixify/internal/metrics"
	"tixify/internal/model"
	"tixify/internal/queue"
	"tixify/internal/service"
	apperrors "tixify/pkg/app_errors"
	"tixify/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Worker interface {
	// 訂閱隊列並在背景處理，ctx 結束時停止
	Start(ctx context.Context) error
	// Wait 等所有 goroutine 結束
	Wait()
}

// IssuanceWorker 把已入庫的票券變成寄出的 PDF
type IssuanceWorker struct {
	service     service.TicketService
	queue       queue.Queue[model.IssuanceJob]
	concurrency int
	maxAttempts int

	mu       sync.Mutex
	attempts map[uuid.UUID]int
	wg       sync.WaitGroup
}

func NewIssuanceWorker(service service.TicketService, q queue.Queue[model.IssuanceJob], concurrency, maxAttempts int) *IssuanceWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &IssuanceWorker{
		service:     service,
		queue:       q,
		concurrency: concurrency,
		maxAttempts: maxAttempts,
		attempts:    make(map[uuid.UUID]int),
	}
}

func (w *IssuanceWorker) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			metrics.WorkerStarted("issuance")
			defer metrics.WorkerStopped("issuance")

			for msg := range msgs {
				w.handle(ctx, msg)
			}
		}()
	}
	return nil
}

func (w *IssuanceWorker) Wait() {
	w.wg.Wait()
}

func (w *IssuanceWorker) handle(ctx context.Context, msg queue.Delivery[model.IssuanceJob]) {
	log := logger.WithComponent("issuance")
	job := msg.Data
	if job == nil || job.TicketID == uuid.Nil {
		msg.Nack(false)
		return
	}

	err := w.service.Deliver(ctx, job.TicketID)
	if err == nil {
		w.forget(job.TicketID)
		msg.Ack()
		return
	}

	// 票券不存在，重試也沒用
	if errors.Is(err, apperrors.ErrTicketNotFound) {
		log.Warn("dropping issuance job for unknown ticket", zap.String("ticket_id", job.TicketID.String()))
		w.forget(job.TicketID)
		msg.Ack()
		return
	}

	attempt := w.recordAttempt(job.TicketID)
	if attempt >= w.maxAttempts {
		log.Error("ticket delivery gave up",
			zap.String("ticket_id", job.TicketID.String()), zap.Int("attempts", attempt), zap.Error(err))
		w.forget(job.TicketID)
		msg.Nack(false)
		return
	}

	log.Warn("ticket delivery failed, will retry",
		zap.String("ticket_id", job.TicketID.String()), zap.Int("attempt", attempt), zap.Error(err))
	msg.Nack(true)
}

func (w *IssuanceWorker) recordAttempt(id uuid.UUID) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[id]++
	return w.attempts[id]
}

func (w *IssuanceWorker) forget(id uuid.UUID) {
	w.mu.Lock()
	delete(w.attempts, id)
	w.mu.Unlock()
}
