// Package migrations embeds the goose migrations for each supported SQL
// dialect and applies them at startup.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql mysql/*.sql
var files embed.FS

// Dialect names accepted by Up. They match goose dialect names.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
)

// goose keeps its base FS and dialect in package state.
var mu sync.Mutex

// FS returns the migration files for dialect.
func FS(dialect string) (fs.FS, error) {
	switch dialect {
	case Postgres, MySQL:
		return fs.Sub(files, dialect)
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
}

// Up applies every pending migration for dialect.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	fsys, err := FS(dialect)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
