package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

// ErrUnknownDialect reports a dialect without embedded migrations.
var ErrUnknownDialect = errors.New("migrations: unknown dialect")

// Root is the directory of the embedded filesystem holding one migration
// directory per dialect.
const Root = "data/sql/migrations"

// goose keeps its base filesystem and dialect in package state.
var gooseMu sync.Mutex

// Dir returns the migration directory for dialect together with the goose
// dialect name.
func Dir(dialect string) (dir string, gooseDialect string, err error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "sqlite", "sqlite3":
		return Root + "/sqlite", "sqlite3", nil
	case "postgres", "pg", "postgresql":
		return Root + "/postgres", "postgres", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
}

// Up applies every pending migration for dialect from fsys.
func Up(ctx context.Context, db *sql.DB, fsys fs.FS, dialect string) error {
	dir, gooseDialect, err := Dir(dialect)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Version reports the applied schema version for dialect.
func Version(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	_, gooseDialect, err := Dir(dialect)
	if err != nil {
		return 0, err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(gooseDialect); err != nil {
		return 0, fmt.Errorf("setting dialect: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
