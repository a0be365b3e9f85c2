package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tixify/internal/model"
	apperrors "tixify/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*model.Event, error)
	FindByID(ctx context.Context, id int) (*model.Event, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error)
	// Publish flips draft to published. A second call returns ErrEventAlreadyPublished.
	Publish(ctx context.Context, id int) (*model.Event, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `id, event_id, organizer_id, name, slug, starts_at, location,
	cover_image_url, logo_url, primary_color, template, template_details,
	status, published_at, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.EventID,
		&event.OrganizerID,
		&event.Name,
		&event.Slug,
		&event.StartsAt,
		&event.Location,
		&event.CoverImageURL,
		&event.LogoURL,
		&event.PrimaryColor,
		&event.Template,
		&event.TemplateDetails,
		&event.Status,
		&event.PublishedAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := `
		INSERT INTO events (
			event_id, organizer_id, name, slug, starts_at, location,
			cover_image_url, logo_url, primary_color, template, template_details, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + eventColumns

	created, err := scanEvent(r.pool.QueryRow(ctx, query,
		event.EventID, event.OrganizerID, event.Name, event.Slug, event.StartsAt, event.Location,
		event.CoverImageURL, event.LogoURL, event.PrimaryColor, event.Template, event.TemplateDetails,
		model.EventStatusDraft,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

func (r *EventRepositoryImpl) ListByOrganizer(ctx context.Context, organizerID string) ([]*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE organizer_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.pool.QueryRow(ctx, query, id))
}

func (r *EventRepositoryImpl) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_id = $1`
	return scanEvent(r.pool.QueryRow(ctx, query, eventID))
}

func (r *EventRepositoryImpl) Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Slug != nil {
		add("slug", *params.Slug)
	}
	if params.StartsAt != nil {
		add("starts_at", *params.StartsAt)
	}
	if params.Location != nil {
		add("location", *params.Location)
	}
	if params.CoverImageURL != nil {
		add("cover_image_url", *params.CoverImageURL)
	}
	if params.LogoURL != nil {
		add("logo_url", *params.LogoURL)
	}
	if params.PrimaryColor != nil {
		add("primary_color", *params.PrimaryColor)
	}
	if params.Template != nil {
		add("template", *params.Template)
	}
	if params.TemplateDetails != nil {
		add("template_details", *params.TemplateDetails)
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// add updated_at
	add("updated_at", time.Now().UTC())

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, eventColumns)

	event, err := scanEvent(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrSlugTaken
		}
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) Publish(ctx context.Context, id int) (*model.Event, error) {
	query := `
		UPDATE events
		SET status = $1, published_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + eventColumns

	now := time.Now().UTC()
	event, err := scanEvent(r.pool.QueryRow(ctx, query, model.EventStatusPublished, now, id, model.EventStatusDraft))
	if errors.Is(err, apperrors.ErrEventNotFound) {
		// distinguish a missing row from one that is already published
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, apperrors.ErrEventAlreadyPublished
	}
	return event, err
}
