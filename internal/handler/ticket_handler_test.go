package handler

import (
	"net/http"
	"testing"

	"tixify/internal/auth"
	"tixify/internal/model"
	apperrors "tixify/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDownloadPDF(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("Issue", mock.Anything, ticketID).Return([]byte("%PDF-1.3"), &model.Ticket{TicketID: ticketID}, nil).Once()

		w := s.do(http.MethodGet, "/api/v1/tickets/"+ticketID.String()+"/pdf", nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), ticketID.String())
		assert.Equal(t, "%PDF-1.3", w.Body.String())
	})

	t.Run("Failed - NotFound", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("Issue", mock.Anything, ticketID).Return(nil, nil, apperrors.ErrTicketNotFound).Once()

		w := s.do(http.MethodGet, "/api/v1/tickets/"+ticketID.String()+"/pdf", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestResend(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("Resend", mock.Anything, ticketID).Return(nil).Once()

		w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/resend", nil, "")
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("Failed - QueueDown", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("Resend", mock.Anything, ticketID).Return(apperrors.ErrIssuanceDeliveryFailed).Once()

		w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/resend", nil, "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

var (
	doorStaff = model.Actor{ID: "staff-1", OrganizerID: "org-1"}
	orgOne    = model.Actor{ID: "org-1", OrganizerID: "org-1"}
)

func TestValidateTicket(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("Validate", mock.Anything, doorStaff, ticketID, "signed-payload").
			Return(model.ValidationResult{Status: model.ValidationValid, Message: "Valid ticket"}, nil).Once()

		w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/validate",
			jsonBody{"payload": "signed-payload"}, s.token(t, "staff-1", auth.RoleStaff))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "valid", decodeBody(t, w)["status"])
	})

	t.Run("Invalid - StillOK", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("Validate", mock.Anything, orgOne, ticketID, "forged").Return(model.InvalidTicket(), nil).Once()

		w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/validate",
			jsonBody{"payload": "forged"}, s.token(t, "org-1", auth.RoleOrganizer))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "invalid", decodeBody(t, w)["status"])
	})

	t.Run("Failed - MissingPayload", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/api/v1/tickets/"+uuid.NewString()+"/validate", jsonBody{}, s.token(t, "staff-1", auth.RoleStaff))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - Anonymous", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/api/v1/tickets/"+uuid.NewString()+"/validate", jsonBody{"payload": "x"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Failed - OtherOrganizer", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		stranger := model.Actor{ID: "staff-9", OrganizerID: "org-2"}
		s.tickets.On("Validate", mock.Anything, stranger, ticketID, "signed-payload").
			Return(model.ValidationResult{}, apperrors.ErrForbidden).Once()

		w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/validate",
			jsonBody{"payload": "signed-payload"}, s.scopedToken(t, "staff-9", auth.RoleStaff, "org-2"))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NotContains(t, w.Body.String(), "customer_name")
	})
}

func TestCheckIn(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("MarkUsed", mock.Anything, doorStaff, ticketID).
			Return(&model.CheckInResult{Outcome: model.CheckInAccepted, Ticket: &model.Ticket{TicketID: ticketID}}, nil).Once()

		w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/check-in", nil, s.token(t, "staff-1", auth.RoleStaff))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "checked_in", decodeBody(t, w)["outcome"])
	})

	t.Run("AlreadyUsed", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("MarkUsed", mock.Anything, doorStaff, ticketID).
			Return(&model.CheckInResult{Outcome: model.CheckInAlreadyUsed}, nil).Once()

		w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/check-in", nil, s.token(t, "staff-1", auth.RoleStaff))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "already_used", decodeBody(t, w)["outcome"])
	})

	t.Run("Failed - NotFound", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("MarkUsed", mock.Anything, doorStaff, ticketID).Return(nil, apperrors.ErrTicketNotFound).Once()

		w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/check-in", nil, s.token(t, "staff-1", auth.RoleStaff))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Failed - OtherOrganizer", func(t *testing.T) {
		s := newTestServer(t)
		ticketID := uuid.New()
		s.tickets.On("MarkUsed", mock.Anything, model.Actor{ID: "org-2", OrganizerID: "org-2"}, ticketID).
			Return(nil, apperrors.ErrForbidden).Once()

		w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/check-in", nil, s.token(t, "org-2", auth.RoleOrganizer))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestUndoCheckIn(t *testing.T) {
	s := newTestServer(t)
	ticketID := uuid.New()
	s.tickets.On("UndoUsed", mock.Anything, orgOne, ticketID).
		Return(&model.CheckInResult{Outcome: model.CheckInReverted}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/tickets/"+ticketID.String()+"/undo-check-in", nil, s.token(t, "org-1", auth.RoleOrganizer))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reverted", decodeBody(t, w)["outcome"])
}

func TestCheckInHistory(t *testing.T) {
	s := newTestServer(t)
	ticketID := uuid.New()
	s.tickets.On("History", mock.Anything, doorStaff, ticketID).Return([]*model.CheckInAudit{
		{ID: 1, TicketID: ticketID, Action: model.ActionCheckIn, Actor: "staff-1"},
	}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/tickets/"+ticketID.String()+"/check-ins", nil, s.token(t, "staff-1", auth.RoleStaff))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListEventTickets(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		eventID := uuid.New()
		s.tickets.On("ListByEvent", mock.Anything, "org-1", eventID).Return([]*model.Ticket{{TicketID: uuid.New()}}, nil).Once()

		w := s.do(http.MethodGet, "/api/v1/events/"+eventID.String()+"/tickets", nil, s.token(t, "org-1", auth.RoleOrganizer))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Failed - StaffForbidden", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodGet, "/api/v1/events/"+uuid.NewString()+"/tickets", nil, s.token(t, "staff-1", auth.RoleStaff))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
