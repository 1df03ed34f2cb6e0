package goNotes

import (
	"context"
	"time"
)

// User is a registered account. Email is stored normalized (trimmed, lower-case).
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Note belongs to exactly one user. ID is allocated per user, starting at 1.
type Note struct {
	UserID int64  `json:"user_id"`
	ID     int64  `json:"note_id"`
	Date   string `json:"note_date"`
	Text   string `json:"note_text"`
}

// TokenPair is the result of Login and Refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// UserStore persists credentials. Lookups return ErrUserNotFound for a
// missing user and CreateUser returns ErrDuplicateUser on a unique violation.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email, passwordHash string) (User, error)
}

// NoteStore persists notes. Every call is scoped to a user id; a note id that
// does not exist for that user yields ErrNoteNotFound.
type NoteStore interface {
	CreateNote(ctx context.Context, userID int64, date, text string) (Note, error)
	GetNote(ctx context.Context, userID, noteID int64) (Note, error)
	ListNotes(ctx context.Context, userID int64) ([]Note, error)
	UpdateNote(ctx context.Context, userID, noteID int64, text string) error
	DeleteNote(ctx context.Context, userID, noteID int64) error
}

// PasswordHasher hashes and verifies passwords. Verify returns (false, nil)
// on a mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// PasswordHashUpdater is optionally implemented by a UserStore. When present,
// Login replaces hashes made with parameters weaker than the configured ones.
type PasswordHashUpdater interface {
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}
