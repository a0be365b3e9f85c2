package service

import (
	"context"
	"fmt"
	"strings"

	"tixify/internal/cache"
	"tixify/internal/model"
	"tixify/internal/repository"
	apperrors "tixify/pkg/app_errors"
	"tixify/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventService interface {
	ListByOrganizer(ctx context.Context, organizerID string) ([]*model.Event, error)
	// GetPublished 公開頁面用，草稿視為不存在
	GetPublished(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, organizerID string, req model.CreateEventRequest) (*model.Event, error)
	Update(ctx context.Context, organizerID string, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
	// Publish 活動開賣：檢查必要欄位，並預熱該活動底下所有票種的 Redis 庫存
	Publish(ctx context.Context, organizerID string, eventID uuid.UUID) (*model.Event, error)
}

type EventServiceImpl struct {
	repo      repository.EventRepository
	tierRepo  repository.TierRepository
	inventory cache.TierInventory
}

func NewEventService(repo repository.EventRepository, tierRepo repository.TierRepository, inventory cache.TierInventory) EventService {
	return &EventServiceImpl{repo: repo, tierRepo: tierRepo, inventory: inventory}
}

func (s *EventServiceImpl) withTiers(ctx context.Context, event *model.Event) (*model.Event, error) {
	tiers, err := s.tierRepo.ListByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.Tiers = tiers
	return event, nil
}

func (s *EventServiceImpl) ListByOrganizer(ctx context.Context, organizerID string) ([]*model.Event, error) {
	events, err := s.repo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if _, err := s.withTiers(ctx, e); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *EventServiceImpl) GetPublished(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsPublished() {
		return nil, apperrors.ErrEventNotFound
	}
	return s.withTiers(ctx, event)
}

func (s *EventServiceImpl) Create(ctx context.Context, organizerID string, req model.CreateEventRequest) (*model.Event, error) {
	if organizerID == "" || strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}
	if req.Template == "" {
		req.Template = model.TemplateStandard
	}
	if err := req.TemplateDetails.ValidateFor(req.Template); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	slug := model.Slugify(req.Slug)
	if slug == "" {
		slug = model.Slugify(req.Name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: name has no usable characters for a slug", apperrors.ErrInvalidInput)
	}

	event := &model.Event{
		EventID:         uuid.New(),
		OrganizerID:     organizerID,
		Name:            strings.TrimSpace(req.Name),
		Slug:            slug,
		StartsAt:        req.StartsAt,
		Location:        req.Location,
		CoverImageURL:   req.CoverImageURL,
		LogoURL:         req.LogoURL,
		PrimaryColor:    req.PrimaryColor,
		Template:        req.Template,
		TemplateDetails: req.TemplateDetails,
	}
	return s.repo.Create(ctx, event)
}

func (s *EventServiceImpl) Update(ctx context.Context, organizerID string, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	if params.IsEmpty() {
		return nil, apperrors.ErrInvalidInput
	}
	event, err := ownedEvent(ctx, s.repo, organizerID, eventID)
	if err != nil {
		return nil, err
	}

	if params.Template != nil || params.TemplateDetails != nil {
		template := event.Template
		if params.Template != nil {
			template = *params.Template
		}
		details := event.TemplateDetails
		if params.TemplateDetails != nil {
			details = *params.TemplateDetails
		} else if template != event.Template {
			// 換模板時舊模板的內容不再適用
			details = model.TemplateDetails{}
			params.TemplateDetails = &details
		}
		if err := details.ValidateFor(template); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
	}
	if params.Slug != nil {
		slug := model.Slugify(*params.Slug)
		if slug == "" {
			return nil, apperrors.ErrInvalidInput
		}
		params.Slug = &slug
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}

	updated, err := s.repo.Update(ctx, event.ID, params)
	if err != nil {
		return nil, err
	}
	return s.withTiers(ctx, updated)
}

func (s *EventServiceImpl) Publish(ctx context.Context, organizerID string, eventID uuid.UUID) (*model.Event, error) {
	event, err := ownedEvent(ctx, s.repo, organizerID, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsPublished() {
		return nil, apperrors.ErrEventAlreadyPublished
	}

	tiers, err := s.tierRepo.ListByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if missing := event.MissingPublishFields(len(tiers)); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPublishRequirements, strings.Join(missing, ", "))
	}

	published, err := s.repo.Publish(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	// Redis 只是閘門，預熱失敗時 checkout 會直接走資料庫
	for _, t := range tiers {
		if err := s.inventory.WarmUp(ctx, t.ID, t.Available, t.Quantity); err != nil {
			logger.WithComponent("event").Warn("failed to warm tier inventory",
				zap.String("event_id", eventID.String()), zap.Int("tier_id", t.ID), zap.Error(err))
		}
	}

	published.Tiers = tiers
	return published, nil
}
