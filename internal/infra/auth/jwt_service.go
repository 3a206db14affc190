// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strings"
	"time"

	"academy/config"
	"academy/internal/domain/entity"
	"academy/internal/domain/service"
	"academy/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingSessionSecret = errors.New("session secret must be provided")
	ErrInvalidSessionToken  = errors.New("invalid session token")
)

// SessionClaims is the JWT payload of a session cookie.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// jwtService signs sessions as HS256 JWTs.
type jwtService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.SessionTokenService, error) {
	if cfg.Session == nil || strings.TrimSpace(cfg.Session.Secret) == "" {
		return nil, ErrMissingSessionSecret
	}

	return &jwtService{
		secret: []byte(cfg.Session.Secret),
		issuer: cfg.Session.Issuer,
		ttl:    cfg.Session.TTL,
		now:    time.Now,
	}, nil
}

// TTL returns the configured lifetime of new sessions.
func (s *jwtService) TTL() time.Duration {
	return s.ttl
}

// Sign serializes the session.
func (s *jwtService) Sign(session entity.Session) (string, error) {
	claims := SessionClaims{
		Role: session.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.TokenID.String(),
			Subject:   session.SubjectID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}

	return token, nil
}

// Parse verifies signature, algorithm, issuer and expiry, then maps the claims to a Session.
// Every failure wraps ErrInvalidSessionToken.
func (s *jwtService) Parse(raw string) (*entity.Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.Wrap(ErrInvalidSessionToken, "empty token")
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidSessionToken, err)
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSessionToken, "subject is not a uuid")
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSessionToken, "jti is not a uuid")
	}

	role, err := entity.ParseRole(claims.Role)
	if err != nil {
		return nil, errors.Join(ErrInvalidSessionToken, err)
	}

	if claims.IssuedAt == nil {
		return nil, errors.Wrap(ErrInvalidSessionToken, "missing iat")
	}

	return &entity.Session{
		TokenID:   tokenID,
		SubjectID: subjectID,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
