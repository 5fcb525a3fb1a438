/**
 * @description
 * Runs the goose SQL migrations against the connection pool at startup.
 * Goose needs a database/sql handle, so a throwaway stdlib connection is
 * opened from the pool's config.
 */
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending migrations from dir.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	db := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}
