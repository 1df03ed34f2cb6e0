// Package sqlstore implements the goNotes user and note stores on
// database/sql. The dialect packages under store/ supply the driver, the
// placeholder style and unique-violation detection.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goNotes "github.com/MrEthical07/goNotes"
	"github.com/MrEthical07/goNotes/internal/dbx"
)

// Dialect describes the differences between the supported databases.
type Dialect struct {
	// Numbered placeholders ($1, $2) instead of ?.
	NumberedPlaceholders bool
	// INSERT ... RETURNING is available; otherwise LastInsertId is used.
	Returning bool
	// IsUniqueViolation reports whether err is a unique-constraint failure.
	IsUniqueViolation func(error) bool
}

// Store implements goNotes.UserStore, goNotes.NoteStore and
// goNotes.PasswordHashUpdater.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	q       queries
}

type queries struct {
	userByEmail, userByID       string
	insertUser, updatePassword  string
	lockUser, nextNoteID        string
	insertNote, noteByID, notes string
	updateNote, deleteNote      string
}

// New wraps db. Migrations are not run here; see store/migrations.
func New(db *sql.DB, dialect Dialect) *Store {
	s := &Store{db: db, dialect: dialect, now: time.Now}
	insertUser := `INSERT INTO users (user_email, user_password, created_at) VALUES (?, ?, ?)`
	if dialect.Returning {
		insertUser += ` RETURNING user_id`
	}
	s.q = queries{
		userByEmail:    s.bind(`SELECT user_id, user_email, user_password, created_at FROM users WHERE user_email = ?`),
		userByID:       s.bind(`SELECT user_id, user_email, user_password, created_at FROM users WHERE user_id = ?`),
		insertUser:     s.bind(insertUser),
		updatePassword: s.bind(`UPDATE users SET user_password = ? WHERE user_id = ?`),
		lockUser:       s.bind(`SELECT user_id FROM users WHERE user_id = ? FOR UPDATE`),
		nextNoteID:     s.bind(`SELECT COALESCE(MAX(note_id), 0) + 1 FROM notes WHERE user_id = ?`),
		insertNote:     s.bind(`INSERT INTO notes (user_id, note_id, note_date, note_text) VALUES (?, ?, ?, ?)`),
		noteByID:       s.bind(`SELECT user_id, note_id, note_date, note_text FROM notes WHERE user_id = ? AND note_id = ?`),
		notes:          s.bind(`SELECT user_id, note_id, note_date, note_text FROM notes WHERE user_id = ? ORDER BY note_id`),
		updateNote:     s.bind(`UPDATE notes SET note_text = ? WHERE user_id = ? AND note_id = ?`),
		deleteNote:     s.bind(`DELETE FROM notes WHERE user_id = ? AND note_id = ?`),
	}
	return s
}

// WithClock replaces the clock used for created_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// DB returns the underlying handle, for migrations and health checks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) bind(query string) string {
	if !s.dialect.NumberedPlaceholders {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (goNotes.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.q.userByEmail, email))
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (goNotes.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.q.userByID, id))
}

func (s *Store) scanUser(row *sql.Row) (goNotes.User, error) {
	var u goNotes.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return goNotes.User{}, goNotes.ErrUserNotFound
		}
		return goNotes.User{}, fmt.Errorf("db error: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (goNotes.User, error) {
	u := goNotes.User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	var err error
	if s.dialect.Returning {
		err = s.db.QueryRowContext(ctx, s.q.insertUser, email, passwordHash, u.CreatedAt).Scan(&u.ID)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, s.q.insertUser, email, passwordHash, u.CreatedAt)
		if err == nil {
			u.ID, err = res.LastInsertId()
		}
	}
	if err != nil {
		if s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err) {
			return goNotes.User{}, goNotes.ErrDuplicateUser
		}
		return goNotes.User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, s.q.updatePassword, passwordHash, userID)
	return affectedOne(res, err, goNotes.ErrUserNotFound)
}

// CreateNote locks the owning user row so concurrent inserts for the same
// user serialize on the max(note_id)+1 allocation.
func (s *Store) CreateNote(ctx context.Context, userID int64, date, text string) (goNotes.Note, error) {
	n := goNotes.Note{UserID: userID, Date: date, Text: text}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var locked int64
		if err := tx.QueryRowContext(ctx, s.q.lockUser, userID).Scan(&locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return goNotes.ErrUserNotFound
			}
			return err
		}
		if err := tx.QueryRowContext(ctx, s.q.nextNoteID, userID).Scan(&n.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.q.insertNote, userID, n.ID, date, text)
		return err
	})
	if err != nil {
		if errors.Is(err, goNotes.ErrUserNotFound) {
			return goNotes.Note{}, err
		}
		return goNotes.Note{}, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (s *Store) GetNote(ctx context.Context, userID, noteID int64) (goNotes.Note, error) {
	var n goNotes.Note
	err := s.db.QueryRowContext(ctx, s.q.noteByID, userID, noteID).Scan(&n.UserID, &n.ID, &n.Date, &n.Text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return goNotes.Note{}, goNotes.ErrNoteNotFound
		}
		return goNotes.Note{}, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (s *Store) ListNotes(ctx context.Context, userID int64) ([]goNotes.Note, error) {
	rows, err := s.db.QueryContext(ctx, s.q.notes, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []goNotes.Note{}
	for rows.Next() {
		var n goNotes.Note
		if err := rows.Scan(&n.UserID, &n.ID, &n.Date, &n.Text); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateNote(ctx context.Context, userID, noteID int64, text string) error {
	res, err := s.db.ExecContext(ctx, s.q.updateNote, text, userID, noteID)
	return affectedOne(res, err, goNotes.ErrNoteNotFound)
}

func (s *Store) DeleteNote(ctx context.Context, userID, noteID int64) error {
	res, err := s.db.ExecContext(ctx, s.q.deleteNote, userID, noteID)
	return affectedOne(res, err, goNotes.ErrNoteNotFound)
}

func affectedOne(res sql.Result, err error, notFound error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
