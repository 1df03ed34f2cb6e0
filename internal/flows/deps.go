package flows

import "time"

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Register  RegisterDeps
	Login     LoginDeps
	Refresh   RefreshDeps
	Logout    LogoutDeps
	Authorize AuthorizeDeps
}

// UserRecord is the flow-local user model. The root package converts its
// own User type to and from it.
type UserRecord struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
