package auth

import (
	"errors"
	"fmt"
	"time"

	apperrors "tixify/pkg/app_errors"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleStaff     Role = "staff"
)

func (r Role) IsValid() bool {
	return r == RoleOrganizer || r == RoleStaff
}

// Claims 帶在 Bearer token 中的身分。Subject 是 organizer_id 或工作人員帳號，
// Organizer 是這個身分可以操作的主辦單位。
type Claims struct {
	Role      Role   `json:"role"`
	Organizer string `json:"org,omitempty"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// Issue signs a token for subject. Organizers are always scoped to themselves;
// staff tokens must name the organizer whose doors they work.
func (a *Authenticator) Issue(subject string, role Role, organizerID string, ttl time.Duration) (string, error) {
	if subject == "" || !role.IsValid() {
		return "", apperrors.ErrInvalidInput
	}
	if role == RoleOrganizer {
		if organizerID != "" && organizerID != subject {
			return "", apperrors.ErrInvalidInput
		}
		organizerID = subject
	}
	if organizerID == "" {
		return "", apperrors.ErrInvalidInput
	}
	now := time.Now()
	claims := Claims{
		Role:      role,
		Organizer: organizerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	if claims.Subject == "" || !claims.Role.IsValid() {
		return nil, apperrors.ErrUnauthorized
	}
	if claims.Role == RoleOrganizer {
		claims.Organizer = claims.Subject
	}
	if claims.Organizer == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}
