package flows

import (
	"context"
)

// AuthorizeFailureKind classifies authorize flow failures for root-level mapping.
type AuthorizeFailureKind int

const (
	AuthorizeFailureNone AuthorizeFailureKind = iota
	AuthorizeFailureDecode
	AuthorizeFailureUserMissing
	AuthorizeFailureLookup
)

type AuthorizeResult struct {
	Failure AuthorizeFailureKind
	Err     error
	User    UserRecord
}

type AuthorizeUserStore interface {
	FindUserByID(ctx context.Context, id int64) (UserRecord, error)
}

// AuthorizeDeps captures authorize flow dependencies. The registry is never
// consulted: access tokens are stateless.
type AuthorizeDeps struct {
	DecodeAccess   func(string) (int64, error)
	IsUserNotFound func(error) bool
	UserStore      AuthorizeUserStore
}

// RunAuthorize resolves an access token to the user it was issued for.
func RunAuthorize(ctx context.Context, accessToken string, deps AuthorizeDeps) AuthorizeResult {
	userID, err := deps.DecodeAccess(accessToken)
	if err != nil {
		return AuthorizeResult{Failure: AuthorizeFailureDecode, Err: err}
	}

	user, err := deps.UserStore.FindUserByID(ctx, userID)
	if err != nil {
		if deps.IsUserNotFound(err) {
			return AuthorizeResult{Failure: AuthorizeFailureUserMissing, Err: err}
		}
		return AuthorizeResult{Failure: AuthorizeFailureLookup, Err: err}
	}
	return AuthorizeResult{User: user}
}
