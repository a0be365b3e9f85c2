package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tixify/internal/issuance"
	"tixify/internal/metrics"
	"tixify/internal/model"
	"tixify/internal/queue"
	"tixify/internal/repository"
	apperrors "tixify/pkg/app_errors"
	"tixify/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TicketService interface {
	// Issue 產生票券 PDF
	Issue(ctx context.Context, ticketID uuid.UUID) ([]byte, *model.Ticket, error)
	// Deliver 產生 PDF 並寄出，成功後狀態 created -> emailed
	Deliver(ctx context.Context, ticketID uuid.UUID) error
	// Resend 重新排入寄送佇列
	Resend(ctx context.Context, ticketID uuid.UUID) error
	// Validate 掃碼驗票，只有基礎設施錯誤與權限錯誤才會回傳 error
	Validate(ctx context.Context, actor model.Actor, ticketID uuid.UUID, payload string) (model.ValidationResult, error)
	MarkUsed(ctx context.Context, actor model.Actor, ticketID uuid.UUID) (*model.CheckInResult, error)
	UndoUsed(ctx context.Context, actor model.Actor, ticketID uuid.UUID) (*model.CheckInResult, error)
	// History 驗票與撤銷紀錄，舊的在前
	History(ctx context.Context, actor model.Actor, ticketID uuid.UUID) ([]*model.CheckInAudit, error)
	ListByEvent(ctx context.Context, organizerID string, eventID uuid.UUID) ([]*model.Ticket, error)
}

// PayloadVerifier checks a scanned QR payload.
type PayloadVerifier interface {
	Verify(payload string) (*issuance.TicketClaims, error)
}

type TicketRenderer interface {
	PDF(doc issuance.TicketDocument) ([]byte, error)
}

type TicketServiceImpl struct {
	pool          repository.TxBeginner
	repo          repository.TicketRepository
	eventRepo     repository.EventRepository
	tierRepo      repository.TierRepository
	auditRepo     repository.CheckInAuditRepository
	verifier      PayloadVerifier
	renderer      TicketRenderer
	mailer        issuance.Mailer
	issuanceQueue queue.Queue[model.IssuanceJob]
	now           func() time.Time
}

func NewTicketService(
	pool repository.TxBeginner,
	repo repository.TicketRepository,
	eventRepo repository.EventRepository,
	tierRepo repository.TierRepository,
	auditRepo repository.CheckInAuditRepository,
	verifier PayloadVerifier,
	renderer TicketRenderer,
	mailer issuance.Mailer,
	issuanceQueue queue.Queue[model.IssuanceJob],
) TicketService {
	return &TicketServiceImpl{
		pool:          pool,
		repo:          repo,
		eventRepo:     eventRepo,
		tierRepo:      tierRepo,
		auditRepo:     auditRepo,
		verifier:      verifier,
		renderer:      renderer,
		mailer:        mailer,
		issuanceQueue: issuanceQueue,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *TicketServiceImpl) document(ctx context.Context, ticketID uuid.UUID) (issuance.TicketDocument, error) {
	ticket, err := s.repo.FindByTicketID(ctx, ticketID)
	if err != nil {
		return issuance.TicketDocument{}, err
	}
	event, err := s.eventRepo.FindByID(ctx, ticket.EventID)
	if err != nil {
		return issuance.TicketDocument{}, err
	}
	tier, err := s.tierRepo.FindByID(ctx, ticket.TierID)
	if err != nil {
		return issuance.TicketDocument{}, err
	}
	return issuance.TicketDocument{Event: event, Tier: tier, Ticket: ticket}, nil
}

func (s *TicketServiceImpl) Issue(ctx context.Context, ticketID uuid.UUID) ([]byte, *model.Ticket, error) {
	doc, err := s.document(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.renderer.PDF(doc)
	if err != nil {
		return nil, nil, err
	}
	return pdf, doc.Ticket, nil
}

func (s *TicketServiceImpl) Deliver(ctx context.Context, ticketID uuid.UUID) error {
	log := logger.WithComponent("issuance").With(zap.String("ticket_id", ticketID.String()))

	doc, err := s.document(ctx, ticketID)
	if err != nil {
		metrics.TrackDelivery(metrics.OutcomeFailed)
		return err
	}

	pdf, err := s.renderer.PDF(doc)
	if err != nil {
		metrics.TrackDelivery(metrics.OutcomeFailed)
		return fmt.Errorf("%w: %v", apperrors.ErrIssuanceDeliveryFailed, err)
	}

	data := issuance.EmailData{
		EventName:    doc.Event.Name,
		CustomerName: doc.Ticket.CustomerName,
		TierName:     doc.Tier.Name,
		Quantity:     doc.Ticket.Quantity,
	}
	if doc.Event.StartsAt != nil {
		data.StartsAt = doc.Event.StartsAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	}
	if doc.Event.Location != nil {
		data.Location = *doc.Event.Location
	}
	if doc.Event.PrimaryColor != nil {
		data.PrimaryColor = *doc.Event.PrimaryColor
	}
	body, err := issuance.RenderTicketEmail(data)
	if err != nil {
		metrics.TrackDelivery(metrics.OutcomeFailed)
		return fmt.Errorf("%w: %v", apperrors.ErrIssuanceDeliveryFailed, err)
	}

	err = s.mailer.Send(ctx, issuance.Message{
		To:      doc.Ticket.CustomerEmail,
		Subject: "Your ticket for " + doc.Event.Name,
		HTML:    body,
		Attachments: []issuance.Attachment{{
			Name:        fmt.Sprintf("ticket-%s.pdf", doc.Ticket.TicketID),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	})
	if err != nil {
		metrics.TrackDelivery(metrics.OutcomeFailed)
		log.Warn("ticket delivery failed", zap.Error(err))
		return fmt.Errorf("%w: %v", apperrors.ErrIssuanceDeliveryFailed, err)
	}

	if err := s.repo.MarkEmailed(ctx, ticketID); err != nil {
		// 信已寄出，不重試以免重複寄信；狀態留在 created
		log.Error("ticket delivered but not marked emailed", zap.Error(err))
	}

	metrics.TrackDelivery(metrics.OutcomeSuccess)
	log.Info("ticket delivered")
	return nil
}

func (s *TicketServiceImpl) Resend(ctx context.Context, ticketID uuid.UUID) error {
	if _, err := s.repo.FindByTicketID(ctx, ticketID); err != nil {
		return err
	}
	job := &model.IssuanceJob{TicketID: ticketID, EnqueuedAt: s.now()}
	if err := s.issuanceQueue.Publish(ctx, job); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrIssuanceDeliveryFailed, err)
	}
	return nil
}

// doorTicket loads a ticket whose event belongs to the organizer the actor works for.
func (s *TicketServiceImpl) doorTicket(ctx context.Context, actor model.Actor, ticketID uuid.UUID) (*model.Ticket, error) {
	ticket, err := s.repo.FindByTicketID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	if actor.OrganizerID == "" || event.OrganizerID != actor.OrganizerID {
		return nil, apperrors.ErrForbidden
	}
	return ticket, nil
}

func (s *TicketServiceImpl) Validate(ctx context.Context, actor model.Actor, ticketID uuid.UUID, payload string) (model.ValidationResult, error) {
	claims, err := s.verifier.Verify(payload)
	if err != nil || claims.TicketID != ticketID {
		metrics.TrackCheckIn("validate", string(model.ValidationInvalid))
		return model.InvalidTicket(), nil
	}

	ticket, err := s.doorTicket(ctx, actor, ticketID)
	if errors.Is(err, apperrors.ErrTicketNotFound) {
		metrics.TrackCheckIn("validate", string(model.ValidationInvalid))
		return model.InvalidTicket(), nil
	}
	if err != nil {
		return model.ValidationResult{}, err
	}

	result := model.ValidationResult{
		TicketID:     &ticket.TicketID,
		CustomerName: ticket.CustomerName,
		Quantity:     ticket.Quantity,
		TierID:       ticket.TierID,
	}
	if ticket.IsUsed() {
		result.Status = model.ValidationAlreadyUsed
		result.Message = "Ticket already used"
		result.UsedAt = ticket.UsedAt
	} else {
		result.Status = model.ValidationValid
		result.Message = "Valid ticket"
	}
	metrics.TrackCheckIn("validate", string(result.Status))
	return result, nil
}

func (s *TicketServiceImpl) MarkUsed(ctx context.Context, actor model.Actor, ticketID uuid.UUID) (*model.CheckInResult, error) {
	if _, err := s.doorTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ticket, applied, err := s.repo.MarkUsed(ctx, tx, ticketID, s.now())
	if err != nil {
		return nil, err
	}
	if !applied {
		metrics.TrackCheckIn(string(model.ActionCheckIn), string(model.CheckInAlreadyUsed))
		return &model.CheckInResult{Outcome: model.CheckInAlreadyUsed, Ticket: ticket}, nil
	}

	if err := s.auditRepo.Record(ctx, tx, ticketID, model.ActionCheckIn, actor.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.TrackCheckIn(string(model.ActionCheckIn), string(model.CheckInAccepted))
	return &model.CheckInResult{Outcome: model.CheckInAccepted, Ticket: ticket}, nil
}

func (s *TicketServiceImpl) UndoUsed(ctx context.Context, actor model.Actor, ticketID uuid.UUID) (*model.CheckInResult, error) {
	if _, err := s.doorTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ticket, applied, err := s.repo.UndoUsed(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}
	if !applied {
		metrics.TrackCheckIn(string(model.ActionUndoCheckIn), string(model.CheckInNotUsed))
		return &model.CheckInResult{Outcome: model.CheckInNotUsed, Ticket: ticket}, nil
	}

	if err := s.auditRepo.Record(ctx, tx, ticketID, model.ActionUndoCheckIn, actor.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.WithComponent("checkin").Info("check-in reverted",
		zap.String("ticket_id", ticketID.String()), zap.String("actor", actor.ID))
	metrics.TrackCheckIn(string(model.ActionUndoCheckIn), string(model.CheckInReverted))
	return &model.CheckInResult{Outcome: model.CheckInReverted, Ticket: ticket}, nil
}

func (s *TicketServiceImpl) History(ctx context.Context, actor model.Actor, ticketID uuid.UUID) ([]*model.CheckInAudit, error) {
	if _, err := s.doorTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByTicket(ctx, ticketID)
}

func (s *TicketServiceImpl) ListByEvent(ctx context.Context, organizerID string, eventID uuid.UUID) ([]*model.Ticket, error) {
	event, err := ownedEvent(ctx, s.eventRepo, organizerID, eventID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByEventID(ctx, event.ID)
}
