package layouts

import (
	"context"
	"database/sql"
	"embed"

	"github.com/goliatone/go-layouts/internal/migrations"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the embedded migration files for this package.
// Migrations live under data/sql/migrations/<dialect>.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// Migrate applies the embedded schema for dialect (sqlite or postgres).
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	return migrations.Up(ctx, db, migrationsFS, dialect)
}
