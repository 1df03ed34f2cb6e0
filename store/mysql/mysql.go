// Package mysql stores goNotes users and notes in MySQL through
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrEthical07/goNotes/internal/sqlstore"
	driver "github.com/go-sql-driver/mysql"
)

const errDupEntry = 1062

// Dialect is the MySQL flavour of the shared SQL store.
var Dialect = sqlstore.Dialect{
	IsUniqueViolation: IsUniqueViolation,
}

// Store implements goNotes.UserStore, goNotes.NoteStore and
// goNotes.PasswordHashUpdater.
type Store struct {
	*sqlstore.Store
}

// Config parses dsn and forces the options the store depends on: parsed
// DATETIME columns in UTC, and found-rows semantics so an UPDATE that leaves a
// note unchanged still counts as a match.
func Config(dsn string) (*driver.Config, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["time_zone"] = "'+00:00'"
	return cfg, nil
}

// Open connects to dsn and verifies the connection with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := Config(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := driver.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return New(db), nil
}

// New wraps an existing handle opened with the mysql driver.
func New(db *sql.DB) *Store {
	return &Store{Store: sqlstore.New(db, Dialect)}
}

// IsUniqueViolation reports whether err is ER_DUP_ENTRY.
func IsUniqueViolation(err error) bool {
	var myErr *driver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDupEntry
}
