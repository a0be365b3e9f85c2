package handler

import (
	"fmt"
	"net/http"
	"testing"

	"tixify/internal/auth"
	"tixify/internal/model"
	apperrors "tixify/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetPublishedEvent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		eventID := uuid.New()
		s.events.On("GetPublished", mock.Anything, eventID).Return(&model.Event{EventID: eventID, Name: "Gala"}, nil).Once()

		w := s.do(http.MethodGet, "/api/v1/events/"+eventID.String(), nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Gala", decodeBody(t, w)["name"])
	})

	t.Run("Failed - InvalidUUID", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodGet, "/api/v1/events/not-a-uuid", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - NotFound", func(t *testing.T) {
		s := newTestServer(t)
		eventID := uuid.New()
		s.events.On("GetPublished", mock.Anything, eventID).Return(nil, apperrors.ErrEventNotFound).Once()

		w := s.do(http.MethodGet, "/api/v1/events/"+eventID.String(), nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListTiers(t *testing.T) {
	s := newTestServer(t)
	eventID := uuid.New()
	s.tiers.On("ListByEvent", mock.Anything, eventID).Return([]*model.TicketTier{{ID: 1, Available: 3}}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/events/"+eventID.String()+"/tiers", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateEvent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		s.events.On("Create", mock.Anything, "org-1", mock.MatchedBy(func(r model.CreateEventRequest) bool {
			return r.Name == "Gala"
		})).Return(&model.Event{Name: "Gala", Slug: "gala"}, nil).Once()

		w := s.do(http.MethodPost, "/api/v1/events", jsonBody{"name": "Gala"}, s.token(t, "org-1", auth.RoleOrganizer))

		assert.Equal(t, http.StatusCreated, w.Code)
		s.events.AssertExpectations(t)
	})

	t.Run("Failed - NoToken", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/api/v1/events", jsonBody{"name": "Gala"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Failed - StaffForbidden", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/api/v1/events", jsonBody{"name": "Gala"}, s.token(t, "staff-1", auth.RoleStaff))
		assert.Equal(t, http.StatusForbidden, w.Code)
		s.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - MissingName", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/api/v1/events", jsonBody{"slug": "x"}, s.token(t, "org-1", auth.RoleOrganizer))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - SlugTaken", func(t *testing.T) {
		s := newTestServer(t)
		s.events.On("Create", mock.Anything, "org-1", mock.Anything).Return(nil, apperrors.ErrSlugTaken).Once()

		w := s.do(http.MethodPost, "/api/v1/events", jsonBody{"name": "Gala"}, s.token(t, "org-1", auth.RoleOrganizer))
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestPublishEvent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		eventID := uuid.New()
		s.events.On("Publish", mock.Anything, "org-1", eventID).
			Return(&model.Event{EventID: eventID, Status: model.EventStatusPublished}, nil).Once()

		w := s.do(http.MethodPost, "/api/v1/events/"+eventID.String()+"/publish", nil, s.token(t, "org-1", auth.RoleOrganizer))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Failed - MissingFields", func(t *testing.T) {
		s := newTestServer(t)
		eventID := uuid.New()
		s.events.On("Publish", mock.Anything, "org-1", eventID).
			Return(nil, fmt.Errorf("%w: location, tiers", apperrors.ErrPublishRequirements)).Once()

		w := s.do(http.MethodPost, "/api/v1/events/"+eventID.String()+"/publish", nil, s.token(t, "org-1", auth.RoleOrganizer))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, decodeBody(t, w)["error"], "location, tiers")
	})

	t.Run("Failed - OtherOrganizer", func(t *testing.T) {
		s := newTestServer(t)
		eventID := uuid.New()
		s.events.On("Publish", mock.Anything, "org-2", eventID).Return(nil, apperrors.ErrForbidden).Once()

		w := s.do(http.MethodPost, "/api/v1/events/"+eventID.String()+"/publish", nil, s.token(t, "org-2", auth.RoleOrganizer))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestUpdateEvent(t *testing.T) {
	s := newTestServer(t)
	eventID := uuid.New()
	s.events.On("Update", mock.Anything, "org-1", eventID, mock.MatchedBy(func(p model.UpdateEventParams) bool {
		return p.Location != nil && *p.Location == "Oslo"
	})).Return(&model.Event{EventID: eventID}, nil).Once()

	w := s.do(http.MethodPut, "/api/v1/events/"+eventID.String(), jsonBody{"location": "Oslo"}, s.token(t, "org-1", auth.RoleOrganizer))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReplaceTiers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		eventID := uuid.New()
		s.tiers.On("ReplaceTiers", mock.Anything, "org-1", eventID, mock.MatchedBy(func(in []model.TierInput) bool {
			return len(in) == 1 && in[0].Price.Equal(decimal.NewFromInt(30)) && in[0].Quantity == 100
		})).Return([]*model.TicketTier{{ID: 1}}, nil).Once()

		body := jsonBody{"tiers": []jsonBody{{"name": "GA", "price": "30", "quantity": 100}}}
		w := s.do(http.MethodPut, "/api/v1/events/"+eventID.String()+"/tiers", body, s.token(t, "org-1", auth.RoleOrganizer))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Failed - Empty", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPut, "/api/v1/events/"+uuid.NewString()+"/tiers", jsonBody{"tiers": []jsonBody{}}, s.token(t, "org-1", auth.RoleOrganizer))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - Locked", func(t *testing.T) {
		s := newTestServer(t)
		eventID := uuid.New()
		s.tiers.On("ReplaceTiers", mock.Anything, "org-1", eventID, mock.Anything).Return(nil, apperrors.ErrTiersLocked).Once()

		body := jsonBody{"tiers": []jsonBody{{"name": "GA", "price": "30", "quantity": 100}}}
		w := s.do(http.MethodPut, "/api/v1/events/"+eventID.String()+"/tiers", body, s.token(t, "org-1", auth.RoleOrganizer))
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestUpdateTier(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		s.tiers.On("UpdateTier", mock.Anything, "org-1", 5, mock.MatchedBy(func(p model.UpdateTierParams) bool {
			return p.Quantity != nil && *p.Quantity == 80
		})).Return(&model.TicketTier{ID: 5, Quantity: 80}, nil).Once()

		w := s.do(http.MethodPatch, "/api/v1/tiers/5", jsonBody{"quantity": 80}, s.token(t, "org-1", auth.RoleOrganizer))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Failed - InvalidID", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPatch, "/api/v1/tiers/abc", jsonBody{"quantity": 80}, s.token(t, "org-1", auth.RoleOrganizer))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

type jsonBody = map[string]interface{}
