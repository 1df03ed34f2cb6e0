package flows

import (
	"context"
)

// RegisterFailureKind classifies register flow failures for root-level mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureInvalidEmail
	RegisterFailurePasswordPolicy
	RegisterFailureLookup
	RegisterFailureDuplicate
	RegisterFailureHash
	RegisterFailureCreate
)

// RegisterResult carries either the created user or failure metadata.
type RegisterResult struct {
	Failure RegisterFailureKind
	Err     error
	Email   string
	User    UserRecord
}

type RegisterUserStore interface {
	FindUserByEmail(ctx context.Context, email string) (UserRecord, error)
	CreateUser(ctx context.Context, email, passwordHash string) (UserRecord, error)
}

// RegisterDeps captures register flow dependencies.
type RegisterDeps struct {
	NormalizeEmail func(string) (string, error)
	CheckPassword  func(string) error
	HashPassword   func(string) (string, error)
	IsUserNotFound func(error) bool
	IsDuplicate    func(error) bool
	UserStore      RegisterUserStore
}

// RunRegister validates input, checks the email is free and creates the user.
// The store's unique constraint is the final arbiter when two registrations
// race past the lookup.
func RunRegister(ctx context.Context, email, password string, deps RegisterDeps) RegisterResult {
	normalized, err := deps.NormalizeEmail(email)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureInvalidEmail, Err: err}
	}
	if err := deps.CheckPassword(password); err != nil {
		return RegisterResult{Failure: RegisterFailurePasswordPolicy, Err: err, Email: normalized}
	}

	_, err = deps.UserStore.FindUserByEmail(ctx, normalized)
	switch {
	case err == nil:
		return RegisterResult{Failure: RegisterFailureDuplicate, Email: normalized}
	case !deps.IsUserNotFound(err):
		return RegisterResult{Failure: RegisterFailureLookup, Err: err, Email: normalized}
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: err, Email: normalized}
	}

	user, err := deps.UserStore.CreateUser(ctx, normalized, hash)
	if err != nil {
		if deps.IsDuplicate(err) {
			return RegisterResult{Failure: RegisterFailureDuplicate, Err: err, Email: normalized}
		}
		return RegisterResult{Failure: RegisterFailureCreate, Err: err, Email: normalized}
	}

	return RegisterResult{Email: normalized, User: user}
}
