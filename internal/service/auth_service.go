package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/daylog-app/daylog-api/internal/models"
	"github.com/daylog-app/daylog-api/internal/token"
	appErrors "github.com/daylog-app/daylog-api/pkg/errors"
)

type credentialStore interface {
	FindByLoginID(ctx context.Context, loginID string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type refreshTokenLedger interface {
	Create(ctx context.Context, rec *models.RefreshToken) error
	FindLatestValid(ctx context.Context, userID int64) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id int64, revokedAt time.Time) error
}

type secretHasher interface {
	Hash(secret string) (string, error)
	Verify(hash, candidate string) bool
}

type tokenCodec interface {
	Sign(userID int64, kind token.Kind) (string, time.Time, error)
	Verify(raw string) (*token.Claims, error)
}

// AuthService orchestrates login, refresh and logout over the credential
// store, the refresh-token ledger, the secret hasher and the token codec.
//
// Refreshing deliberately does not rotate the refresh token: the same token
// keeps working until it expires or is revoked, and a successful refresh
// leaves its ledger record untouched. New logins likewise leave earlier
// sessions valid. Both match the legacy service and are known hardening
// gaps.
type AuthService struct {
	users     credentialStore
	ledger    refreshTokenLedger
	hasher    secretHasher
	codec     tokenCodec
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	limiter   *LoginLimiter
	audit     *AuditService
}

// NewAuthService constructs an AuthService instance. Metrics, limiter and
// audit are optional.
func NewAuthService(users credentialStore, ledger refreshTokenLedger, hasher secretHasher, codec tokenCodec, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:     users,
		ledger:    ledger,
		hasher:    hasher,
		codec:     codec,
		validator: validate,
		logger:    logger,
	}
}

// WithMetrics attaches Prometheus instrumentation.
func (s *AuthService) WithMetrics(m *MetricsService) *AuthService {
	s.metrics = m
	return s
}

// WithLoginLimiter attaches login throttling.
func (s *AuthService) WithLoginLimiter(l *LoginLimiter) *AuthService {
	s.limiter = l
	return s
}

// WithAudit attaches the audit trail recorder.
func (s *AuthService) WithAudit(a *AuditService) *AuthService {
	s.audit = a
	return s
}

// Login authenticates a user and opens a new session: it issues an access
// token and a refresh token, and persists the refresh token's hash in the
// ledger. The failure message never reveals whether the login id or the
// password was wrong.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	if allowed, err := s.limiter.Allow(ctx, req.LoginID, req.IP); err != nil {
		s.logger.Warn("login limiter unavailable, failing open", zap.Error(err))
	} else if !allowed {
		s.metrics.RecordLogin("throttled")
		s.audit.Record(models.AuditLog{Action: models.AuditActionLoginRejected, Detail: "rate limited", IPAddress: req.IP, UserAgent: req.UserAgent})
		return nil, appErrors.Clone(appErrors.ErrTooManyRequests, "")
	}

	user, err := s.users.FindByLoginID(ctx, req.LoginID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordLogin("failure")
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if user.Status != models.StatusActive {
		s.metrics.RecordLogin("inactive")
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		s.metrics.RecordLogin("failure")
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	accessToken, _, err := s.codec.Sign(user.ID, token.KindAccess)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, refreshExpiresAt, err := s.codec.Sign(user.ID, token.KindRefresh)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	tokenHash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash refresh token")
	}

	rec := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: refreshExpiresAt,
	}
	if err := s.ledger.Create(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	s.limiter.Reset(ctx, req.LoginID, req.IP)
	s.metrics.RecordLogin("success")
	s.audit.Record(models.AuditLog{UserID: &user.ID, Action: models.AuditActionLogin, IPAddress: req.IP, UserAgent: req.UserAgent})

	return &models.LoginResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Refresh exchanges a still-valid refresh token for a new access token. The
// refresh token itself and its ledger record are left untouched on success.
// A hash mismatch against the newest valid ledger record is treated as a
// possible reuse signal: the record is revoked before the call fails.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		s.metrics.RecordRefresh("failure")
		return "", appErrors.Clone(appErrors.ErrInvalidToken, "refresh token required")
	}

	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		// Nothing usable can be salvaged from a token that fails
		// verification, so no defensive revocation is attempted here.
		s.metrics.RecordRefresh("failure")
		return "", appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.Logout(ctx, rawToken)
			s.metrics.RecordRefresh("failure")
			return "", appErrors.Clone(appErrors.ErrInvalidToken, "")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	rec, err := s.ledger.FindLatestValid(ctx, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.Logout(ctx, rawToken)
			s.metrics.RecordRefresh("revoked")
			return "", appErrors.Clone(appErrors.ErrTokenRevoked, "")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh token")
	}

	if !s.hasher.Verify(rec.TokenHash, rawToken) {
		if err := s.ledger.Revoke(ctx, rec.ID, time.Now().UTC()); err != nil {
			s.logger.Warn("failed to revoke mismatched refresh token", zap.Int64("record_id", rec.ID), zap.Error(err))
		}
		s.metrics.RecordRefresh("failure")
		s.metrics.RecordRevocation("hash_mismatch")
		s.audit.Record(models.AuditLog{UserID: &user.ID, Action: models.AuditActionTokenRevoked, Detail: "refresh hash mismatch"})
		return "", appErrors.Clone(appErrors.ErrInvalidToken, "")
	}

	accessToken, _, err := s.codec.Sign(user.ID, token.KindAccess)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.metrics.RecordRefresh("success")
	s.audit.Record(models.AuditLog{UserID: &user.ID, Action: models.AuditActionRefresh})

	return accessToken, nil
}

// Logout revokes the session belonging to the given refresh token. It is
// best-effort cleanup: every internal failure degrades to a no-op and the
// call never reports an error.
func (s *AuthService) Logout(ctx context.Context, rawToken string) {
	if rawToken == "" {
		return
	}

	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		s.logger.Debug("logout with unverifiable token", zap.Error(err))
		return
	}

	rec, err := s.ledger.FindLatestValid(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load refresh token during logout", zap.Int64("user_id", claims.UserID), zap.Error(err))
		}
		return
	}

	if !s.hasher.Verify(rec.TokenHash, rawToken) {
		return
	}

	if err := s.ledger.Revoke(ctx, rec.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to revoke refresh token during logout", zap.Int64("record_id", rec.ID), zap.Error(err))
		return
	}

	s.metrics.RecordRevocation("logout")
	s.audit.Record(models.AuditLog{UserID: &claims.UserID, Action: models.AuditActionLogout})
}
