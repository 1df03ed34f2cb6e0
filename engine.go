package goNotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalflows "github.com/MrEthical07/goNotes/internal/flows"
	"github.com/MrEthical07/goNotes/internal/rate"
	"github.com/MrEthical07/goNotes/jwt"
	"github.com/MrEthical07/goNotes/password"
	"github.com/MrEthical07/goNotes/refresh"
	"github.com/rs/zerolog"
)

// tokenTypeBearer is the token_type reported with every pair.
const tokenTypeBearer = "bearer"

// Engine is the session manager. It is safe for concurrent use; all durable
// state lives in the stores and the refresh registry.
type Engine struct {
	config      Config
	flows       internalflows.Service
	userStore   UserStore
	noteStore   NoteStore
	registry    refresh.Registry
	rateLimiter *rate.Limiter
	hasher      PasswordHasher
	dummyHash   string
	jwtManager  *jwt.Manager
	audit       *auditDispatcher
	metrics     *Metrics
	logger      zerolog.Logger
	clock       func() time.Time
}

// Close drains pending audit events. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the live counters for exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Ping checks that the refresh registry backend is reachable. Registries
// without a health check are assumed healthy.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.registry == nil {
		return ErrEngineNotReady
	}
	p, ok := e.registry.(refresh.Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return infraError(err)
	}
	return nil
}

// infra records and wraps a backing-store failure.
func (e *Engine) infra(op string, err error) error {
	e.metricInc(MetricInfrastructureError)
	e.logger.Warn().Err(err).Str("op", op).Msg("backend call failed")
	return infraError(err)
}

// Register creates an account. The email is stored trimmed and lower-cased.
func (e *Engine) Register(ctx context.Context, email, plain string) (User, error) {
	if e == nil || !e.flows.Initialized() {
		return User{}, ErrEngineNotReady
	}

	res := e.flows.Register(ctx, email, plain)
	switch res.Failure {
	case internalflows.RegisterFailureNone:
		e.metricInc(MetricRegisterSuccess)
		e.emitAudit(ctx, auditEventRegisterSuccess, true, res.User.ID, res.Email, nil, nil)
		return fromUserRecord(res.User), nil
	case internalflows.RegisterFailureDuplicate:
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, 0, res.Email, ErrDuplicateUser, nil)
		return User{}, ErrDuplicateUser
	case internalflows.RegisterFailureInvalidEmail:
		e.metricInc(MetricRegisterRejected)
		e.emitAudit(ctx, auditEventRegisterFailure, false, 0, "", ErrInvalidEmail, nil)
		return User{}, ErrInvalidEmail
	case internalflows.RegisterFailurePasswordPolicy:
		e.metricInc(MetricRegisterRejected)
		e.emitAudit(ctx, auditEventRegisterFailure, false, 0, res.Email, ErrPasswordPolicy, nil)
		return User{}, ErrPasswordPolicy
	case internalflows.RegisterFailureHash:
		e.metricInc(MetricRegisterRejected)
		if errors.Is(res.Err, password.ErrTooLongForBcrypt) || errors.Is(res.Err, password.ErrEmptyPassword) {
			e.emitAudit(ctx, auditEventRegisterFailure, false, 0, res.Email, ErrPasswordPolicy, nil)
			return User{}, ErrPasswordPolicy
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, 0, res.Email, res.Err, nil)
		return User{}, fmt.Errorf("goNotes: hash password: %w", res.Err)
	default:
		err := e.infra("register", res.Err)
		e.emitAudit(ctx, auditEventRegisterFailure, false, 0, res.Email, err, nil)
		return User{}, err
	}
}

// Login verifies credentials and opens a new session. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials. Existing sessions of the
// same user stay valid.
func (e *Engine) Login(ctx context.Context, email, plain string) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricLoginLatency, time.Since(start)) }()
	}

	res := e.flows.Login(ctx, email, plain)
	switch res.Failure {
	case internalflows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		if res.Rehashed {
			e.metricInc(MetricPasswordRehashed)
			e.emitAudit(ctx, auditEventPasswordRehashed, true, res.UserID, res.Email, nil, nil)
		}
		e.emitAudit(ctx, auditEventLoginSuccess, true, res.UserID, res.Email, nil, nil)
		return TokenPair{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
			TokenType:    tokenTypeBearer,
		}, nil
	case internalflows.LoginFailureRateLimited:
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, res.UserID, res.Email, ErrLoginRateLimited, nil)
		return TokenPair{}, ErrLoginRateLimited
	case internalflows.LoginFailureInvalidCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.UserID, res.Email, ErrInvalidCredentials, nil)
		return TokenPair{}, ErrInvalidCredentials
	case internalflows.LoginFailureVerify:
		e.metricInc(MetricLoginFailure)
		e.logger.Error().Err(res.Err).Int64("user_id", res.UserID).Msg("stored password hash unusable")
		e.emitAudit(ctx, auditEventLoginFailure, false, res.UserID, res.Email, res.Err, nil)
		return TokenPair{}, fmt.Errorf("goNotes: verify password: %w", res.Err)
	case internalflows.LoginFailureIssue:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.UserID, res.Email, res.Err, nil)
		return TokenPair{}, fmt.Errorf("goNotes: issue tokens: %w", res.Err)
	default:
		e.metricInc(MetricLoginFailure)
		err := e.infra("login", res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.UserID, res.Email, err, func() map[string]string {
			return map[string]string{"reason": loginFailureReason(res.Failure)}
		})
		return TokenPair{}, err
	}
}

func loginFailureReason(kind internalflows.LoginFailureKind) string {
	switch kind {
	case internalflows.LoginFailureRateLimitBackend:
		return "rate_limiter"
	case internalflows.LoginFailureLookup:
		return "user_lookup"
	case internalflows.LoginFailurePersist:
		return "registry_save"
	default:
		return "unknown"
	}
}

// Refresh rotates refreshToken into a new pair. The new refresh token keeps
// the remaining lifetime of the old one; the old one stops working.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)
	switch res.Failure {
	case internalflows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.UserID, "", nil, nil)
		return TokenPair{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
			TokenType:    tokenTypeBearer,
		}, nil
	case internalflows.RefreshFailureDecode:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, 0, "", ErrInvalidRefreshToken, func() map[string]string {
			return map[string]string{"reason": "decode_failed"}
		})
		return TokenPair{}, ErrInvalidRefreshToken
	case internalflows.RefreshFailureNotRegistered, internalflows.RefreshFailureRotateLost:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricRefreshReplayRejected)
		e.emitAudit(ctx, auditEventRefreshReplayRejected, false, res.UserID, "", ErrInvalidRefreshToken, nil)
		return TokenPair{}, ErrInvalidRefreshToken
	case internalflows.RefreshFailureIssue:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, "", res.Err, nil)
		return TokenPair{}, fmt.Errorf("goNotes: issue tokens: %w", res.Err)
	default:
		e.metricInc(MetricRefreshFailure)
		err := e.infra("refresh", res.Err)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, "", err, nil)
		return TokenPair{}, err
	}
}

// Logout revokes refreshToken. Revoking a token that is not registered
// (already rotated, already logged out, or expired) fails.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, refreshToken)
	switch res.Failure {
	case internalflows.LogoutFailureNone:
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, auditEventLogoutSuccess, true, res.UserID, "", nil, nil)
		return nil
	case internalflows.LogoutFailureDecode:
		e.metricInc(MetricLogoutFailure)
		e.emitAudit(ctx, auditEventLogoutFailure, false, 0, "", ErrInvalidRefreshToken, nil)
		return ErrInvalidRefreshToken
	case internalflows.LogoutFailureNotRegistered:
		e.metricInc(MetricLogoutFailure)
		e.metricInc(MetricRefreshReplayRejected)
		e.emitAudit(ctx, auditEventLogoutFailure, false, res.UserID, "", ErrInvalidRefreshToken, nil)
		return ErrInvalidRefreshToken
	default:
		e.metricInc(MetricLogoutFailure)
		err := e.infra("logout", res.Err)
		e.emitAudit(ctx, auditEventLogoutFailure, false, res.UserID, "", err, nil)
		return err
	}
}

// Authorize resolves a bearer access token to its user. It never touches the
// refresh registry.
func (e *Engine) Authorize(ctx context.Context, accessToken string) (User, error) {
	if e == nil || !e.flows.Initialized() {
		return User{}, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAuthorizeLatency, time.Since(start)) }()
	}

	res := e.flows.Authorize(ctx, accessToken)
	switch res.Failure {
	case internalflows.AuthorizeFailureNone:
		e.metricInc(MetricAuthorizeSuccess)
		return fromUserRecord(res.User), nil
	case internalflows.AuthorizeFailureDecode, internalflows.AuthorizeFailureUserMissing:
		e.metricInc(MetricAuthorizeFailure)
		return User{}, ErrUnauthorized
	default:
		e.metricInc(MetricAuthorizeFailure)
		return User{}, e.infra("authorize", res.Err)
	}
}
