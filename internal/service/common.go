package service

import (
	"context"

	"tixify/internal/model"
	"tixify/internal/repository"
	apperrors "tixify/pkg/app_errors"

	"github.com/google/uuid"
)

// ownedEvent loads an event and checks that organizerID owns it.
func ownedEvent(ctx context.Context, repo repository.EventRepository, organizerID string, eventID uuid.UUID) (*model.Event, error) {
	event, err := repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, apperrors.ErrForbidden
	}
	return event, nil
}
