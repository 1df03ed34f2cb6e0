package flows

import (
	"context"
)

// LogoutFailureKind classifies logout flow failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureDecode
	LogoutFailureNotRegistered
	LogoutFailureDelete
)

type LogoutResult struct {
	Failure LogoutFailureKind
	Err     error
	UserID  int64
}

type LogoutRegistry interface {
	Delete(ctx context.Context, token string) (bool, error)
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	DecodeRefresh func(string) (int64, error)
	Registry      LogoutRegistry
}

// RunLogout revokes a single refresh token. A token that was already
// consumed or never registered fails, so a second logout is rejected.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	userID, err := deps.DecodeRefresh(refreshToken)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureDecode, Err: err}
	}

	existed, err := deps.Registry.Delete(ctx, refreshToken)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureDelete, Err: err, UserID: userID}
	}
	if !existed {
		return LogoutResult{Failure: LogoutFailureNotRegistered, UserID: userID}
	}
	return LogoutResult{UserID: userID}
}
