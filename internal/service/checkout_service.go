package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"tixify/internal/cache"
	"tixify/internal/metrics"
	"tixify/internal/model"
	"tixify/internal/queue"
	"tixify/internal/repository"
	apperrors "tixify/pkg/app_errors"
	"tixify/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CheckoutService interface {
	// Checkout 將已完成付款的購物車轉成票券
	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error)
}

// PayloadSigner signs the QR payload of a ticket.
type PayloadSigner interface {
	Sign(ticket *model.Ticket, eventID uuid.UUID) (string, error)
}

type CheckoutOptions struct {
	Timeout time.Duration
	LockTTL time.Duration
}

type CheckoutServiceImpl struct {
	pool           repository.TxBeginner
	eventRepo      repository.EventRepository
	tierRepo       repository.TierRepository
	ticketRepo     repository.TicketRepository
	inventory      cache.TierInventory
	lock           cache.CheckoutLock
	signer         PayloadSigner
	issuanceQueue  queue.Queue[model.IssuanceJob]
	reconciliation queue.Queue[model.ReconciliationCase]
	opts           CheckoutOptions
}

func NewCheckoutService(
	pool repository.TxBeginner,
	eventRepo repository.EventRepository,
	tierRepo repository.TierRepository,
	ticketRepo repository.TicketRepository,
	inventory cache.TierInventory,
	lock cache.CheckoutLock,
	signer PayloadSigner,
	issuanceQueue queue.Queue[model.IssuanceJob],
	reconciliation queue.Queue[model.ReconciliationCase],
	opts CheckoutOptions,
) CheckoutService {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	return &CheckoutServiceImpl{
		pool:           pool,
		eventRepo:      eventRepo,
		tierRepo:       tierRepo,
		ticketRepo:     ticketRepo,
		inventory:      inventory,
		lock:           lock,
		signer:         signer,
		issuanceQueue:  issuanceQueue,
		reconciliation: reconciliation,
		opts:           opts,
	}
}

type reservation struct {
	tierID   int
	quantity int
}

func (s *CheckoutServiceImpl) Checkout(ctx context.Context, req model.CheckoutRequest) (result *model.CheckoutResult, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveCheckout(checkoutOutcome(result, err), time.Since(start))
	}()

	if !req.Validate() {
		return nil, apperrors.ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	log := logger.WithComponent("checkout").With(
		zap.String("payment_reference", req.Payment.Reference),
		zap.String("event_id", req.EventID.String()),
	)

	// 1. 同一筆付款已開過票：直接回傳
	if replay, err := s.replay(ctx, req.Payment.Reference); err != nil || replay != nil {
		return replay, err
	}

	// 2. 付款參考編號的互斥鎖；Redis 不可用時退回資料庫唯一索引
	token, locked, err := s.lock.Acquire(ctx, req.Payment.Reference, s.opts.LockTTL)
	switch {
	case err != nil:
		log.Warn("checkout lock unavailable, relying on unique index", zap.Error(err))
	case !locked:
		return nil, apperrors.ErrCheckoutInProgress
	default:
		defer func() {
			if err := s.lock.Release(context.Background(), req.Payment.Reference, token); err != nil {
				log.Warn("failed to release checkout lock", zap.Error(err))
			}
		}()
		// 取得鎖之前另一個請求可能剛好完成
		if replay, err := s.replay(ctx, req.Payment.Reference); err != nil || replay != nil {
			return replay, err
		}
	}

	// 3. 活動
	event, err := s.eventRepo.FindByEventID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if !event.IsPublished() {
		return nil, apperrors.ErrEventNotPublished
	}

	// 以下任何失敗都代表「已付款但未開票」
	// 4. Redis 閘門：提早擋掉售完的票種
	reserved := make([]reservation, 0, len(req.LineItems))
	for i, item := range req.LineItems {
		_, err := s.inventory.Reserve(ctx, item.TierID, item.Quantity)
		switch {
		case err == nil:
			reserved = append(reserved, reservation{tierID: item.TierID, quantity: item.Quantity})
		case errors.Is(err, apperrors.ErrTierNotWarmed):
		case errors.Is(err, apperrors.ErrInsufficientInventory):
			metrics.TrackInventoryRejection("gate")
			s.releaseAll(log, reserved)
			return nil, s.fail(log, req, i, item.TierID, err)
		default:
			log.Warn("inventory gate error, falling back to ledger", zap.Int("tier_id", item.TierID), zap.Error(err))
		}
	}

	// 5. 單一交易：扣庫存、開票
	tickets, lineIndex, tierID, err := s.issueInTx(ctx, event, req)
	if err != nil {
		s.releaseAll(log, reserved)
		if errors.Is(err, apperrors.ErrCheckoutInProgress) {
			// 唯一索引擋下：同一筆付款已由另一個請求完成
			replay, replayErr := s.replay(context.Background(), req.Payment.Reference)
			if replayErr == nil && replay != nil {
				return replay, nil
			}
			return nil, apperrors.ErrCheckoutInProgress
		}
		if errors.Is(err, apperrors.ErrInsufficientInventory) {
			metrics.TrackInventoryRejection("ledger")
		}
		return nil, s.fail(log, req, lineIndex, tierID, err)
	}

	for _, t := range tickets {
		metrics.AddTicketsSold(event.EventID.String(), t.Quantity)
	}

	// 6. 寄送票券：排入佇列，失敗不影響結帳結果
	result = &model.CheckoutResult{Tickets: tickets}
	for _, t := range tickets {
		job := &model.IssuanceJob{TicketID: t.TicketID, EnqueuedAt: time.Now().UTC()}
		if err := s.issuanceQueue.Publish(ctx, job); err != nil {
			log.Error("failed to enqueue ticket delivery", zap.String("ticket_id", t.TicketID.String()), zap.Error(err))
			metrics.TrackDelivery("enqueue_failed")
			result.DeliveryPending = append(result.DeliveryPending, t.TicketID)
		}
	}

	log.Info("checkout completed", zap.Int("tickets", len(tickets)))
	return result, nil
}

func (s *CheckoutServiceImpl) replay(ctx context.Context, reference string) (*model.CheckoutResult, error) {
	existing, err := s.ticketRepo.FindByPaymentReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}
	return &model.CheckoutResult{Tickets: existing, Replayed: true}, nil
}

// tierDecrement is one ledger decrement: every line item of a tier merged.
type tierDecrement struct {
	tierID    int
	quantity  int
	firstLine int
}

// lockOrder merges line items per tier and sorts them by tier id so every
// checkout takes tier row locks in the same order.
func lockOrder(items []model.LineItem) []tierDecrement {
	byTier := make(map[int]int, len(items))
	decrements := make([]tierDecrement, 0, len(items))
	for i, item := range items {
		if pos, ok := byTier[item.TierID]; ok {
			decrements[pos].quantity += item.Quantity
			continue
		}
		byTier[item.TierID] = len(decrements)
		decrements = append(decrements, tierDecrement{tierID: item.TierID, quantity: item.Quantity, firstLine: i})
	}
	slices.SortFunc(decrements, func(a, b tierDecrement) int {
		return cmp.Compare(a.tierID, b.tierID)
	})
	return decrements
}

// issueInTx returns the failing line index and tier on error, or -1 when
// the failure is not tied to one line item.
func (s *CheckoutServiceImpl) issueInTx(ctx context.Context, event *model.Event, req model.CheckoutRequest) ([]*model.Ticket, int, int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, -1, 0, err
	}
	defer tx.Rollback(ctx)

	// 先扣庫存：依 tier id 由小到大
	prices := make(map[int]decimal.Decimal, len(req.LineItems))
	for _, d := range lockOrder(req.LineItems) {
		_, price, err := s.tierRepo.DecreaseAvailable(ctx, tx, event.ID, d.tierID, d.quantity)
		if err != nil {
			return nil, d.firstLine, d.tierID, err
		}
		for i, item := range req.LineItems {
			if item.TierID == d.tierID && !item.UnitPrice.IsZero() && !item.UnitPrice.Equal(price) {
				return nil, i, item.TierID, apperrors.ErrPriceMismatch
			}
		}
		prices[d.tierID] = price
	}

	// 再依購物車原本的順序開票
	tickets := make([]*model.Ticket, 0, len(req.LineItems))
	total := decimal.Zero
	for i, item := range req.LineItems {
		price := prices[item.TierID]
		ticket := &model.Ticket{
			TicketID:         uuid.New(),
			EventID:          event.ID,
			TierID:           item.TierID,
			Quantity:         item.Quantity,
			TotalPrice:       price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			CustomerName:     req.Customer.Name,
			CustomerEmail:    req.Customer.Email,
			Status:           model.TicketStatusCreated,
			PaymentReference: req.Payment.Reference,
			LineIndex:        i,
		}
		ticket.QRCode, err = s.signer.Sign(ticket, event.EventID)
		if err != nil {
			return nil, i, item.TierID, err
		}

		created, err := s.ticketRepo.Create(ctx, tx, ticket)
		if err != nil {
			return nil, i, item.TierID, err
		}
		tickets = append(tickets, created)
		total = total.Add(created.TotalPrice)
	}

	if !req.Payment.AmountCaptured.IsZero() && !req.Payment.AmountCaptured.Equal(total) {
		return nil, -1, 0, apperrors.ErrPaymentAmountMismatch
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, -1, 0, err
	}
	return tickets, -1, 0, nil
}

func (s *CheckoutServiceImpl) releaseAll(log *zap.Logger, reserved []reservation) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, r := range reserved {
		if err := s.inventory.Release(ctx, r.tierID, r.quantity); err != nil {
			log.Warn("failed to release gate reservation", zap.Int("tier_id", r.tierID), zap.Error(err))
		}
	}
}

// fail records a captured payment that produced no tickets.
func (s *CheckoutServiceImpl) fail(log *zap.Logger, req model.CheckoutRequest, lineIndex, tierID int, cause error) error {
	rc := &model.ReconciliationCase{
		PaymentReference: req.Payment.Reference,
		Provider:         req.Payment.Provider,
		AmountCaptured:   req.Payment.AmountCaptured,
		Currency:         req.Payment.Currency,
		EventID:          req.EventID,
		CustomerEmail:    req.Customer.Email,
		LineIndex:        lineIndex,
		TierID:           tierID,
		Reason:           cause.Error(),
		OccurredAt:       time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	queued := true
	if err := s.reconciliation.Publish(ctx, rc); err != nil {
		queued = false
		log.Error("failed to queue reconciliation case", zap.Error(err))
	}

	log.Error("payment captured but ticketing failed",
		zap.Int("line_index", lineIndex),
		zap.Int("tier_id", tierID),
		zap.Bool("reconciliation_queued", queued),
		zap.Error(cause),
	)

	return &apperrors.CheckoutError{
		PaymentReference:     req.Payment.Reference,
		LineIndex:            lineIndex,
		TierID:               tierID,
		ReconciliationQueued: queued,
		Err:                  cause,
	}
}

func checkoutOutcome(result *model.CheckoutResult, err error) string {
	switch {
	case err == nil && result != nil && result.Replayed:
		return metrics.OutcomeReplayed
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrCheckoutInProgress),
		errors.Is(err, apperrors.ErrEventNotFound),
		errors.Is(err, apperrors.ErrEventNotPublished):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
