// Package facade exposes the authentication state of one browser session to the UI layer.
package facade

import (
	"context"
	"sync"
	"time"

	"academy/internal/domain/access"
	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/service"
	"academy/internal/errors"
	"academy/internal/usecase"

	"github.com/google/uuid"
)

// State is the lifecycle stage of an AuthContext.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// CurrentIdentity is what the UI knows about the signed-in user.
type CurrentIdentity struct {
	ID          uuid.UUID
	Role        entity.Role
	Email       string
	DisplayName string
	ExpiresAt   time.Time
}

// AuthContext tracks one browser session. It is safe for concurrent use.
type AuthContext struct {
	auth   usecase.AuthUsecase
	reader usecase.SessionReader

	mu          sync.RWMutex
	state       State
	identity    *CurrentIdentity
	token       string
	lastFailure error
}

// NewAuthContext returns a context in the Loading state.
func NewAuthContext(auth usecase.AuthUsecase, reader usecase.SessionReader) *AuthContext {
	return &AuthContext{
		auth:   auth,
		reader: reader,
		state:  StateLoading,
	}
}

// Initialize resolves a stored token. Anything unreadable leaves the context Anonymous.
func (a *AuthContext) Initialize(raw string) State {
	session, ok := a.reader.Read(raw)

	a.mu.Lock()
	defer a.mu.Unlock()

	if !ok {
		a.clearLocked()

		return a.state
	}

	a.state = StateAuthenticated
	a.token = raw
	a.identity = &CurrentIdentity{
		ID:        session.SubjectID,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt,
	}

	return a.state
}

// State returns the current lifecycle stage.
func (a *AuthContext) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.state
}

// CurrentIdentity returns the signed-in identity, or nil when not authenticated.
func (a *AuthContext) CurrentIdentity() *CurrentIdentity {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.identity == nil {
		return nil
	}
	current := *a.identity

	return &current
}

// IsAdmin reports whether the signed-in identity is an ADMIN.
func (a *AuthContext) IsAdmin() bool {
	return a.hasRole(entity.RoleAdmin)
}

// IsStudent reports whether the signed-in identity is a STUDENT.
func (a *AuthContext) IsStudent() bool {
	return a.hasRole(entity.RoleStudent)
}

// HasRole accepts any casing of a role name. Unknown names never match.
func (a *AuthContext) HasRole(role string) bool {
	parsed, err := entity.ParseRole(role)
	if err != nil {
		return false
	}

	return a.hasRole(parsed)
}

// Token returns the raw session token, empty when not authenticated.
func (a *AuthContext) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.token
}

// LastFailure returns the domain error of the last rejected sign-in attempt.
func (a *AuthContext) LastFailure() error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.lastFailure
}

// Login signs in with email and password.
func (a *AuthContext) Login(ctx context.Context, email, password string) (bool, error) {
	return a.complete(a.auth.Login(ctx, usecase.LoginInput{Email: email, Password: password}))
}

// Signup registers a new STUDENT and signs it in.
func (a *AuthContext) Signup(ctx context.Context, details usecase.SignupInput) (bool, error) {
	return a.complete(a.auth.Signup(ctx, details))
}

// CompleteOAuth signs in with a provider-verified identity.
func (a *AuthContext) CompleteOAuth(ctx context.Context, user *service.OAuthUser) (bool, error) {
	return a.complete(a.auth.OAuthLogin(ctx, user))
}

// VerifyMagicLink signs in with the token from an emailed link.
func (a *AuthContext) VerifyMagicLink(ctx context.Context, token string) (bool, error) {
	return a.complete(a.auth.VerifyMagicLink(ctx, token))
}

// Logout forgets the session. Tokens are stateless, so an already copied token stays valid until it expires.
func (a *AuthContext) Logout() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.clearLocked()
	a.lastFailure = nil
}

func (a *AuthContext) hasRole(role entity.Role) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.state != StateAuthenticated || a.identity == nil {
		return false
	}

	return access.RequireRole(&entity.Session{Role: a.identity.Role}, role)
}

func (a *AuthContext) complete(result *usecase.AuthResult, err error) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		if !isExpectedFailure(err) {
			return false, err
		}

		// A failed attempt never ends an existing session.
		if a.state == StateLoading {
			a.state = StateAnonymous
		}
		a.lastFailure = err

		return false, nil
	}

	a.state = StateAuthenticated
	a.token = result.Token.Raw
	a.lastFailure = nil
	a.identity = &CurrentIdentity{
		ID:          result.Identity.ID,
		Role:        result.Token.Session.Role,
		Email:       result.Identity.Email,
		DisplayName: result.Identity.DisplayName,
		ExpiresAt:   result.Token.Session.ExpiresAt,
	}

	return true, nil
}

func (a *AuthContext) clearLocked() {
	a.state = StateAnonymous
	a.identity = nil
	a.token = ""
}

var expectedFailures = []error{
	domainerrors.ErrInvalidCredentials,
	domainerrors.ErrAccountBlocked,
	domainerrors.ErrExpiredOrUsedToken,
	domainerrors.ErrAccountConflict,
	domainerrors.ErrPasswordStrength,
	domainerrors.ErrValidationFailed,
	domainerrors.ErrOAuthTokenInvalid,
}

func isExpectedFailure(err error) bool {
	for _, target := range expectedFailures {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
