package issuance

import (
	"errors"
	"fmt"
	"time"

	"tixify/internal/model"
	apperrors "tixify/pkg/app_errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TicketClaims is the payload encoded into a ticket's QR code.
type TicketClaims struct {
	TicketID uuid.UUID `json:"tid"`
	EventID  uuid.UUID `json:"eid"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Quantity int       `json:"qty"`
	jwt.RegisteredClaims
}

// Signer signs and verifies QR payloads with HMAC-SHA256.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("qr signing secret is empty")
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

func (s *Signer) Sign(ticket *model.Ticket, eventID uuid.UUID) (string, error) {
	claims := TicketClaims{
		TicketID: ticket.TicketID,
		EventID:  eventID,
		Name:     ticket.CustomerName,
		Email:    ticket.CustomerEmail,
		Quantity: ticket.Quantity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       ticket.TicketID.String(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket payload: %w", err)
	}
	return token, nil
}

// Verify returns the claims of a payload produced by Sign. Any tampering,
// foreign key or unexpected algorithm yields ErrInvalidTicketPayload.
func (s *Signer) Verify(payload string) (*TicketClaims, error) {
	claims := &TicketClaims{}
	_, err := jwt.ParseWithClaims(payload, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidTicketPayload, err)
	}
	if claims.TicketID == uuid.Nil {
		return nil, apperrors.ErrInvalidTicketPayload
	}
	return claims, nil
}
