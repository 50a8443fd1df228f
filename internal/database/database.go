package database

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vedran77/minilid/internal/config"
)

func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "unable to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "unable to ping database")
	}

	return pool, nil
}

// OpenSQL opens a database/sql handle through the pgx stdlib driver. Only the
// migration runner uses it; request paths go through the pool.
func OpenSQL(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to ping database")
	}
	return db, nil
}
