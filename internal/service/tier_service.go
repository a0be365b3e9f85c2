package service

import (
	"context"
	"strings"

	"tixify/internal/cache"
	"tixify/internal/model"
	"tixify/internal/repository"
	apperrors "tixify/pkg/app_errors"
	"tixify/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TierService interface {
	// ListByEvent 公開：票種與剩餘數量
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.TicketTier, error)
	// ReplaceTiers 整批替換，僅限尚未售出任何票券
	ReplaceTiers(ctx context.Context, organizerID string, eventID uuid.UUID, tiers []model.TierInput) ([]*model.TicketTier, error)
	UpdateTier(ctx context.Context, organizerID string, tierID int, params model.UpdateTierParams) (*model.TicketTier, error)
}

type TierServiceImpl struct {
	pool      repository.TxBeginner
	repo      repository.TierRepository
	eventRepo repository.EventRepository
	inventory cache.TierInventory
}

func NewTierService(pool repository.TxBeginner, repo repository.TierRepository, eventRepo repository.EventRepository, inventory cache.TierInventory) TierService {
	return &TierServiceImpl{pool: pool, repo: repo, eventRepo: eventRepo, inventory: inventory}
}

func (s *TierServiceImpl) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.TicketTier, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsPublished() {
		return nil, apperrors.ErrEventNotFound
	}
	return s.repo.ListByEventID(ctx, event.ID)
}

func (s *TierServiceImpl) ReplaceTiers(ctx context.Context, organizerID string, eventID uuid.UUID, tiers []model.TierInput) ([]*model.TicketTier, error) {
	if len(tiers) == 0 {
		return nil, apperrors.ErrInvalidInput
	}
	for _, in := range tiers {
		if !in.Valid() {
			return nil, apperrors.ErrInvalidInput
		}
	}

	event, err := ownedEvent(ctx, s.eventRepo, organizerID, eventID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := s.repo.ListByEventIDWithLock(ctx, tx, event.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range current {
		if t.Sold() > 0 {
			return nil, apperrors.ErrTiersLocked
		}
	}

	for i := range tiers {
		tiers[i].Name = strings.TrimSpace(tiers[i].Name)
	}
	created, err := s.repo.ReplaceForEvent(ctx, tx, event.ID, tiers)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	oldIDs := make([]int, 0, len(current))
	for _, t := range current {
		oldIDs = append(oldIDs, t.ID)
	}
	s.syncGate(ctx, event, oldIDs, created)

	return created, nil
}

func (s *TierServiceImpl) UpdateTier(ctx context.Context, organizerID string, tierID int, params model.UpdateTierParams) (*model.TicketTier, error) {
	if params.IsEmpty() {
		return nil, apperrors.ErrInvalidInput
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if params.Price != nil && params.Price.IsNegative() {
		return nil, apperrors.ErrInvalidInput
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tier, err := s.repo.FindByIDWithLock(ctx, tx, tierID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, tier.EventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, apperrors.ErrForbidden
	}

	if params.Name != nil {
		tier.Name = strings.TrimSpace(*params.Name)
	}
	if params.Price != nil {
		tier.Price = *params.Price
	}
	if params.Quantity != nil {
		available, ok := tier.NextAvailable(*params.Quantity)
		if !ok {
			return nil, apperrors.ErrInvalidInput
		}
		tier.Quantity = *params.Quantity
		tier.Available = available
	}

	updated, err := s.repo.Update(ctx, tx, tier)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.syncGate(ctx, event, nil, []*model.TicketTier{updated})
	return updated, nil
}

// syncGate drops stale tier keys and re-warms live ones for published events.
func (s *TierServiceImpl) syncGate(ctx context.Context, event *model.Event, removed []int, tiers []*model.TicketTier) {
	log := logger.WithComponent("tier")
	if err := s.inventory.Invalidate(ctx, removed...); err != nil {
		log.Warn("failed to invalidate tier inventory", zap.Ints("tier_ids", removed), zap.Error(err))
	}
	if !event.IsPublished() {
		return
	}
	for _, t := range tiers {
		if err := s.inventory.WarmUp(ctx, t.ID, t.Available, t.Quantity); err != nil {
			log.Warn("failed to warm tier inventory", zap.Int("tier_id", t.ID), zap.Error(err))
		}
	}
}
