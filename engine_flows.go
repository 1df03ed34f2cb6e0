package goNotes

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	internalflows "github.com/MrEthical07/goNotes/internal/flows"
	"github.com/MrEthical07/goNotes/internal/rate"
	"github.com/MrEthical07/goNotes/jwt"
	"github.com/MrEthical07/goNotes/refresh"
)

// maxEmailLength is the RFC 5321 path limit.
const maxEmailLength = 254

func (e *Engine) initFlows() {
	users := userRecordStore{e.userStore}
	decodeRefresh := e.decodeAs(jwt.TypeRefresh)
	isUserNotFound := func(err error) bool { return errors.Is(err, ErrUserNotFound) }

	login := internalflows.LoginDeps{
		ClientIPFromContext: clientIPFromContext,
		IsRateLimited:       func(err error) bool { return errors.Is(err, rate.ErrRateLimited) },
		IsUserNotFound:      isUserNotFound,
		VerifyPassword:      e.hasher.Verify,
		DummyHash:           e.dummyHash,
		IssueAccess:         e.jwtManager.IssueAccess,
		IssueRefresh:        e.jwtManager.IssueRefresh,
		RefreshTTL:          e.jwtManager.RefreshTTL(),
		RehashIfNeeded:      e.rehashIfNeeded,
		Warn:                e.warn,
		UserStore:           users,
		Registry:            e.registry,
	}
	if e.rateLimiter != nil {
		login.RateLimiter = e.rateLimiter
	}

	e.flows = internalflows.New(internalflows.Deps{
		Register: internalflows.RegisterDeps{
			NormalizeEmail: normalizeEmail,
			CheckPassword:  e.checkPassword,
			HashPassword:   e.hasher.Hash,
			IsUserNotFound: isUserNotFound,
			IsDuplicate:    func(err error) bool { return errors.Is(err, ErrDuplicateUser) },
			UserStore:      users,
		},
		Login: login,
		Refresh: internalflows.RefreshDeps{
			DecodeRefresh: decodeRefresh,
			IssueAccess:   e.jwtManager.IssueAccess,
			IssueRefresh:  e.jwtManager.IssueRefresh,
			IsRotateLost: func(err error) bool {
				return errors.Is(err, refresh.ErrNotFound) || errors.Is(err, refresh.ErrOwnerMismatch)
			},
			Registry: e.registry,
		},
		Logout: internalflows.LogoutDeps{
			DecodeRefresh: decodeRefresh,
			Registry:      e.registry,
		},
		Authorize: internalflows.AuthorizeDeps{
			DecodeAccess:   e.decodeAs(jwt.TypeAccess),
			IsUserNotFound: isUserNotFound,
			UserStore:      users,
		},
	})
}

func (e *Engine) decodeAs(typ jwt.TokenType) func(string) (int64, error) {
	return func(token string) (int64, error) {
		userID, _, err := e.jwtManager.DecodeAs(token, typ)
		return userID, err
	}
}

func (e *Engine) warn(msg string, kv ...any) {
	e.logger.Warn().Fields(kv).Msg(msg)
}

// checkPassword enforces the configured length limits in bytes.
func (e *Engine) checkPassword(p string) error {
	if len(p) < e.config.Password.MinLength || len(p) > e.config.Password.MaxLength {
		return ErrPasswordPolicy
	}
	return nil
}

func (e *Engine) rehashIfNeeded(ctx context.Context, user internalflows.UserRecord, password string) bool {
	upgrader, ok := e.hasher.(interface {
		NeedsUpgrade(string) (bool, error)
	})
	if !ok {
		return false
	}
	updater, ok := e.userStore.(PasswordHashUpdater)
	if !ok {
		return false
	}

	needs, err := upgrader.NeedsUpgrade(user.PasswordHash)
	if err != nil || !needs {
		return false
	}
	hash, err := e.hasher.Hash(password)
	if err != nil {
		e.warn("password rehash failed", "user_id", user.ID, "error", err)
		return false
	}
	if err := updater.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		e.warn("password hash update failed", "user_id", user.ID, "error", err)
		return false
	}
	return true
}

// normalizeEmail trims and lower-cases raw and requires a bare RFC 5322
// address (no display name, no angle brackets).
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > maxEmailLength {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || !strings.Contains(email[at+1:], ".") {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// userRecordStore adapts a UserStore to the flow-local record type.
type userRecordStore struct {
	store UserStore
}

func (s userRecordStore) FindUserByEmail(ctx context.Context, email string) (internalflows.UserRecord, error) {
	u, err := s.store.FindUserByEmail(ctx, email)
	return toUserRecord(u), err
}

func (s userRecordStore) FindUserByID(ctx context.Context, id int64) (internalflows.UserRecord, error) {
	u, err := s.store.FindUserByID(ctx, id)
	return toUserRecord(u), err
}

func (s userRecordStore) CreateUser(ctx context.Context, email, passwordHash string) (internalflows.UserRecord, error) {
	u, err := s.store.CreateUser(ctx, email, passwordHash)
	return toUserRecord(u), err
}

func toUserRecord(u User) internalflows.UserRecord {
	return internalflows.UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func fromUserRecord(r internalflows.UserRecord) User {
	return User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}
