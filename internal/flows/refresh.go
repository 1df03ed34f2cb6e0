package flows

import (
	"context"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureDecode
	RefreshFailureNotRegistered
	RefreshFailureLookup
	RefreshFailureIssue
	// RefreshFailureRotateLost means another caller consumed the token
	// between the existence check and the rename.
	RefreshFailureRotateLost
	RefreshFailureRotate
)

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	UserID       int64
	AccessToken  string
	RefreshToken string
}

type RefreshRegistry interface {
	Exists(ctx context.Context, token string) (bool, error)
	Rename(ctx context.Context, oldToken, newToken string, userID int64) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	DecodeRefresh func(string) (int64, error)
	IssueAccess   func(int64) (string, error)
	IssueRefresh  func(int64) (string, error)
	// IsRotateLost reports whether a Rename error means the old entry was
	// missing or owned by someone else.
	IsRotateLost func(error) bool
	Registry     RefreshRegistry
}

// RunRefresh rotates refreshToken: the old registry entry is renamed to the
// new token so the remaining lifetime carries over and never grows.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	userID, err := deps.DecodeRefresh(refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}

	ok, err := deps.Registry.Exists(ctx, refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureLookup, Err: err, UserID: userID}
	}
	if !ok {
		return RefreshResult{Failure: RefreshFailureNotRegistered, UserID: userID}
	}

	access, err := deps.IssueAccess(userID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, UserID: userID}
	}
	next, err := deps.IssueRefresh(userID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, UserID: userID}
	}

	if err := deps.Registry.Rename(ctx, refreshToken, next, userID); err != nil {
		if deps.IsRotateLost(err) {
			return RefreshResult{Failure: RefreshFailureRotateLost, Err: err, UserID: userID}
		}
		return RefreshResult{Failure: RefreshFailureRotate, Err: err, UserID: userID}
	}

	return RefreshResult{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: next,
	}
}
