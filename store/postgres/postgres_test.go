package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	goNotes "github.com/MrEthical07/goNotes"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	_ goNotes.UserStore           = (*Store)(nil)
	_ goNotes.NoteStore           = (*Store)(nil)
	_ goNotes.PasswordHashUpdater = (*Store)(nil)
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return New(db), mock, db
}

func TestCreateUserReturningID(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return now })

	q := `(?s)^INSERT\s+INTO\s+users\s*\(user_email,\s*user_password,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+user_id$`
	mock.ExpectQuery(q).
		WithArgs("alice@example.com", "hash", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(7)))

	u, err := s.CreateUser(context.Background(), "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if u.ID != 7 || !u.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateUserUniqueViolation(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_user_email_key"})

	_, err := s.CreateUser(context.Background(), "alice@example.com", "hash")
	if !errors.Is(err, goNotes.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestFindUserByEmail(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	q := `(?s)^SELECT\s+user_id,\s*user_email,\s*user_password,\s*created_at\s+FROM\s+users\s+WHERE\s+user_email\s*=\s*\$1$`
	mock.ExpectQuery(q).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "user_email", "user_password", "created_at"}).
			AddRow(int64(1), "alice@example.com", "hash", created))
	mock.ExpectQuery(q).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	u, err := s.FindUserByEmail(context.Background(), "alice@example.com")
	if err != nil || u.ID != 1 || u.PasswordHash != "hash" {
		t.Fatalf("unexpected result %+v %v", u, err)
	}
	if _, err := s.FindUserByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, goNotes.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFindUserByIDDBError(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+user_id`).WillReturnError(errors.New("conn reset"))

	_, err := s.FindUserByID(context.Background(), 1)
	if err == nil || errors.Is(err, goNotes.ErrUserNotFound) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreateNoteAllocatesNextID(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT\s+user_id\s+FROM\s+users\s+WHERE\s+user_id\s*=\s*\$1\s+FOR\s+UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`(?s)SELECT\s+COALESCE\(MAX\(note_id\),\s*0\)\s*\+\s*1\s+FROM\s+notes\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(3)))
	mock.ExpectExec(`(?s)INSERT\s+INTO\s+notes\s*\(user_id,\s*note_id,\s*note_date,\s*note_text\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)`).
		WithArgs(int64(1), int64(3), "2025-03-01", "buy milk").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.CreateNote(context.Background(), 1, "2025-03-01", "buy milk")
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}
	if n.ID != 3 || n.UserID != 1 {
		t.Fatalf("unexpected note %+v", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateNoteRollsBackOnInsertError(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR\s+UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`COALESCE`).WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(1)))
	mock.ExpectExec(`INSERT\s+INTO\s+notes`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if _, err := s.CreateNote(context.Background(), 1, "2025-03-01", "x"); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListNotesEmpty(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+notes\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+note_id`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "note_id", "note_date", "note_text"}))

	notes, err := s.ListNotes(context.Background(), 9)
	if err != nil || notes == nil || len(notes) != 0 {
		t.Fatalf("expected empty list, got %#v %v", notes, err)
	}
}

func TestUpdateAndDeleteMissingNote(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)UPDATE\s+notes\s+SET\s+note_text\s*=\s*\$1\s+WHERE\s+user_id\s*=\s*\$2\s+AND\s+note_id\s*=\s*\$3`).
		WithArgs("x", int64(1), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)DELETE\s+FROM\s+notes\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+note_id\s*=\s*\$2`).
		WithArgs(int64(1), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE\s+FROM\s+notes`).
		WithArgs(int64(1), int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpdateNote(context.Background(), 1, 5, "x"); !errors.Is(err, goNotes.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
	if err := s.DeleteNote(context.Background(), 1, 5); !errors.Is(err, goNotes.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
	if err := s.DeleteNote(context.Background(), 1, 6); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("23505 not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation reported as unique")
	}
	if IsUniqueViolation(errors.New("23505")) {
		t.Fatal("plain error reported as unique")
	}
}
