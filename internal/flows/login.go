package flows

import (
	"context"
	"strings"
	"time"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureRateLimited
	LoginFailureRateLimitBackend
	LoginFailureLookup
	LoginFailureInvalidCredentials
	LoginFailureVerify
	LoginFailureIssue
	LoginFailurePersist
)

// LoginResult carries either the issued token pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	Email        string
	UserID       int64
	AccessToken  string
	RefreshToken string
	Rehashed     bool
}

type LoginUserStore interface {
	FindUserByEmail(ctx context.Context, email string) (UserRecord, error)
}

type LoginRefreshRegistry interface {
	Save(ctx context.Context, token string, userID int64, ttl time.Duration) error
}

// LoginRateLimiter is optional. CheckLogin returns IsRateLimited-matching
// errors while the budget is exhausted.
type LoginRateLimiter interface {
	CheckLogin(ctx context.Context, identifier, ip string) error
	IncrementLogin(ctx context.Context, identifier, ip string) error
	ResetLogin(ctx context.Context, identifier, ip string) error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string
	IsRateLimited       func(error) bool
	IsUserNotFound      func(error) bool
	VerifyPassword      func(password, hash string) (bool, error)
	// DummyHash is verified against for unknown emails so both failure paths
	// spend comparable time.
	DummyHash    string
	IssueAccess  func(int64) (string, error)
	IssueRefresh func(int64) (string, error)
	RefreshTTL   time.Duration
	// RehashIfNeeded is optional; it is called after a successful verify and
	// reports whether the stored hash was replaced.
	RehashIfNeeded func(ctx context.Context, user UserRecord, password string) bool
	Warn           func(string, ...any)
	RateLimiter    LoginRateLimiter
	UserStore      LoginUserStore
	Registry       LoginRefreshRegistry
}

// RunLogin verifies credentials, issues an access/refresh pair and registers
// the refresh token. Other sessions of the same user are left untouched.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	email = strings.ToLower(strings.TrimSpace(email))
	ip := ""
	if deps.ClientIPFromContext != nil {
		ip = deps.ClientIPFromContext(ctx)
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckLogin(ctx, email, ip); err != nil {
			if deps.IsRateLimited(err) {
				return LoginResult{Failure: LoginFailureRateLimited, Err: err, Email: email}
			}
			return LoginResult{Failure: LoginFailureRateLimitBackend, Err: err, Email: email}
		}
	}

	user, err := deps.UserStore.FindUserByEmail(ctx, email)
	if err != nil {
		if !deps.IsUserNotFound(err) {
			return LoginResult{Failure: LoginFailureLookup, Err: err, Email: email}
		}
		if deps.DummyHash != "" {
			_, _ = deps.VerifyPassword(password, deps.DummyHash)
		}
		return invalidLogin(ctx, deps, email, ip, 0, err)
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return LoginResult{Failure: LoginFailureVerify, Err: err, Email: email, UserID: user.ID}
	}
	if !ok {
		return invalidLogin(ctx, deps, email, ip, user.ID, nil)
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.ResetLogin(ctx, email, ip); err != nil && deps.Warn != nil {
			deps.Warn("goNotes: login rate limiter reset failed", "error", err)
		}
	}

	rehashed := false
	if deps.RehashIfNeeded != nil {
		rehashed = deps.RehashIfNeeded(ctx, user, password)
	}

	access, err := deps.IssueAccess(user.ID)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Email: email, UserID: user.ID}
	}
	refresh, err := deps.IssueRefresh(user.ID)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Email: email, UserID: user.ID}
	}

	if err := deps.Registry.Save(ctx, refresh, user.ID, deps.RefreshTTL); err != nil {
		return LoginResult{Failure: LoginFailurePersist, Err: err, Email: email, UserID: user.ID}
	}

	return LoginResult{
		Email:        email,
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		Rehashed:     rehashed,
	}
}

func invalidLogin(ctx context.Context, deps LoginDeps, email, ip string, userID int64, cause error) LoginResult {
	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.IncrementLogin(ctx, email, ip); err != nil {
			if deps.IsRateLimited(err) {
				return LoginResult{Failure: LoginFailureRateLimited, Err: err, Email: email, UserID: userID}
			}
			if deps.Warn != nil {
				deps.Warn("goNotes: login rate limiter increment failed", "error", err)
			}
		}
	}
	return LoginResult{Failure: LoginFailureInvalidCredentials, Err: cause, Email: email, UserID: userID}
}
