package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	goNotes "github.com/MrEthical07/goNotes"
	driver "github.com/go-sql-driver/mysql"
)

var (
	_ goNotes.UserStore = (*Store)(nil)
	_ goNotes.NoteStore = (*Store)(nil)
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return New(db), mock, db
}

func TestCreateUserLastInsertID(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return now })

	q := `(?s)^INSERT\s+INTO\s+users\s*\(user_email,\s*user_password,\s*created_at\)\s*VALUES\s*\(\?,\s*\?,\s*\?\)$`
	mock.ExpectExec(q).
		WithArgs("alice@example.com", "hash", now).
		WillReturnResult(sqlmock.NewResult(12, 1))

	u, err := s.CreateUser(context.Background(), "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if u.ID != 12 {
		t.Fatalf("expected id 12, got %d", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateUserDuplicateEntry(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnError(&driver.MySQLError{Number: 1062, Message: "Duplicate entry"})

	if _, err := s.CreateUser(context.Background(), "alice@example.com", "hash"); !errors.Is(err, goNotes.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestGetNoteUsesQuestionMarks(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+user_id,\s*note_id,\s*note_date,\s*note_text\s+FROM\s+notes\s+WHERE\s+user_id\s*=\s*\?\s+AND\s+note_id\s*=\s*\?$`
	mock.ExpectQuery(q).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "note_id", "note_date", "note_text"}).
			AddRow(int64(1), int64(2), "2025-03-01", "hello"))
	mock.ExpectQuery(q).
		WithArgs(int64(1), int64(3)).
		WillReturnError(sql.ErrNoRows)

	n, err := s.GetNote(context.Background(), 1, 2)
	if err != nil || n.Text != "hello" {
		t.Fatalf("unexpected note %+v %v", n, err)
	}
	if _, err := s.GetNote(context.Background(), 1, 3); !errors.Is(err, goNotes.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestCreateNoteForMissingUser(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT\s+user_id\s+FROM\s+users\s+WHERE\s+user_id\s*=\s*\?\s+FOR\s+UPDATE`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.CreateNote(context.Background(), 404, "2025-03-01", "x")
	if !errors.Is(err, goNotes.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)UPDATE\s+users\s+SET\s+user_password\s*=\s*\?\s+WHERE\s+user_id\s*=\s*\?`).
		WithArgs("new-hash", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpdatePasswordHash(context.Background(), 1, "new-hash"); err != nil {
		t.Fatalf("UpdatePasswordHash error: %v", err)
	}
}

func TestConfigForcesRequiredOptions(t *testing.T) {
	cfg, err := Config("notes:secret@tcp(db:3306)/notes")
	if err != nil {
		t.Fatalf("Config error: %v", err)
	}
	if !cfg.ParseTime || !cfg.ClientFoundRows {
		t.Fatalf("options not forced: %+v", cfg)
	}
	if cfg.DBName != "notes" || cfg.Addr != "db:3306" {
		t.Fatalf("dsn not parsed: %+v", cfg)
	}
	if _, err := Config("not a dsn"); err == nil {
		t.Fatal("expected parse error")
	}
}
