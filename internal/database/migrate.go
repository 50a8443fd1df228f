package database

import (
	"context"
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/vedran77/minilid/internal/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const createSchemaMigrations = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// migrationFiles returns the embedded migration file names in apply order.
func migrationFiles() ([]string, error) {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Migrate applies every embedded migration that is not yet recorded in
// schema_migrations. Each file runs in its own transaction together with its
// bookkeeping row.
func Migrate(ctx context.Context, db *sql.DB, log *zap.SugaredLogger) error {
	if log == nil {
		log = logger.Logger
	}

	if _, err := db.ExecContext(ctx, createSchemaMigrations); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	files, err := migrationFiles()
	if err != nil {
		return err
	}

	for _, filename := range files {
		version := strings.SplitN(filename, "_", 2)[0]

		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists)
		if err != nil {
			return errors.Wrapf(err, "check migration %s", filename)
		}
		if exists {
			log.Debugw("Skipping migration (already applied)", "migration", filename, logger.FieldVersion, version)
			continue
		}

		body, err := migrations.ReadFile(path.Join("migrations", filename))
		if err != nil {
			return errors.Wrapf(err, "read %s", filename)
		}

		log.Infow("Applying migration", "migration", filename, logger.FieldVersion, version)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrapf(err, "begin tx for %s", filename)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "execute %s", filename)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "record %s", filename)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit %s", filename)
		}
	}

	return nil
}
