package users

import (
	"context"
	"fmt"

	apperrors "github.com/memtensor/userapi/pkg/errors"
	"github.com/memtensor/userapi/pkg/interfaces"
	"github.com/memtensor/userapi/pkg/metrics"
)

const (
	MsgNoToken      = "No token provided"
	MsgInvalidToken = "Invalid or expired token"
)

// SessionManager issues, checks and revokes token-backed sessions
type SessionManager struct {
	repository *Repository
	codec      *TokenCodec
	logger     interfaces.Logger
	metrics    interfaces.Metrics
}

// NewSessionManager creates a session manager
func NewSessionManager(repository *Repository, codec *TokenCodec, log interfaces.Logger) *SessionManager {
	return &SessionManager{
		repository: repository,
		codec:      codec,
		logger:     log,
		metrics:    metrics.NewNoOpMetrics(),
	}
}

// WithMetrics sets the collector for login and authentication outcomes
func (s *SessionManager) WithMetrics(m interfaces.Metrics) *SessionManager {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Login verifies credentials, mints a token and records it as valid.
// No token row is written when the lookup or the password check fails.
func (s *SessionManager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repository.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError(err.Error(), err)
	}
	if user == nil {
		s.recordLogin("unknown_user")
		return nil, apperrors.NewNotFoundError("User")
	}

	if !VerifyPassword(password, user.Password) {
		s.recordLogin("bad_password")
		return nil, apperrors.NewInvalidCredentialsError()
	}

	token, err := s.codec.Sign(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err.Error(), err)
	}

	if err := s.repository.CreateToken(ctx, &Token{
		Token:   token,
		UserID:  user.ID,
		IsValid: true,
	}); err != nil {
		return nil, apperrors.NewInternalError(err.Error(), err)
	}

	s.recordLogin("success")
	s.logger.Info("User logged in", map[string]interface{}{"user_id": user.ID})

	return &LoginResult{Token: token, User: user}, nil
}

// Logout invalidates every valid record of token. Repeating it is harmless.
func (s *SessionManager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.NewUnauthenticatedError(MsgNoToken)
	}

	n, err := s.repository.InvalidateToken(ctx, token)
	if err != nil {
		return apperrors.NewInternalError(err.Error(), err)
	}

	s.logger.Debug("Token invalidated", map[string]interface{}{"rows": n})
	return nil
}

// Authenticate accepts a token only if its record exists and is valid and the
// signature and expiry verify. Any other outcome is Forbidden, except a missing
// token which is Unauthenticated.
func (s *SessionManager) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		s.recordAuth("missing")
		return nil, apperrors.NewUnauthenticatedError(MsgNoToken)
	}

	record, err := s.repository.FindToken(ctx, token)
	if err != nil {
		s.recordAuth("error")
		s.logger.Error("Token lookup failed", err)
		return nil, forbidden(err)
	}
	if record == nil || !record.IsValid {
		s.recordAuth("revoked")
		return nil, forbidden(nil)
	}

	identity, err := s.codec.Verify(token)
	if err != nil {
		s.recordAuth("invalid")
		return nil, forbidden(err)
	}

	s.recordAuth("ok")
	return identity, nil
}

func forbidden(cause error) error {
	e := apperrors.NewForbiddenError(MsgInvalidToken)
	e.Cause = cause
	return e
}

func (s *SessionManager) recordLogin(outcome string) {
	s.metrics.Counter("logins_total", 1, map[string]string{"outcome": outcome})
}

func (s *SessionManager) recordAuth(outcome string) {
	s.metrics.Counter("authentications_total", 1, map[string]string{"outcome": outcome})
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*Identity)
	return identity, ok && identity != nil
}

// String renders the identity for logs without the raw token
func (i *Identity) String() string {
	return fmt.Sprintf("%s <%s>", i.UserID, i.Email)
}
