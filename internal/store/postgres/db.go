package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"cabinet/backend/internal/store"
)

// PoolConfig tunes the database/sql pool behind the bun handle. Zero values keep driver defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// SlowQuery logs statements slower than this at warn level; zero disables it.
	SlowQuery time.Duration
	Logger    *slog.Logger
}

// Open connects to the reservations database and verifies it answers before returning.
func Open(ctx context.Context, databaseURL string, pool PoolConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}
	applyPool(sqlDB, pool)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	db := bun.NewDB(sqlDB, pgdialect.New())
	if pool.Logger != nil {
		db.AddQueryHook(&queryLogger{
			log:  pool.Logger.With(slog.String("component", "postgres")),
			slow: pool.SlowQuery,
		})
	}
	return db, nil
}

func applyPool(sqlDB *sql.DB, pool PoolConfig) {
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}
}

// Ping reports whether the database answers within ctx.
func Ping(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return errors.New("postgres: nil db")
	}
	return db.PingContext(ctx)
}

func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// queryLogger is a bun query hook. Failed statements log at error level,
// except lookup misses and slot conflicts, which callers translate.
type queryLogger struct {
	log  *slog.Logger
	slow time.Duration
}

var _ bun.QueryHook = (*queryLogger)(nil)

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)
	switch {
	case event.Err != nil && !expectedQueryError(event.Err):
		h.log.ErrorContext(ctx, "query failed",
			slog.String("operation", event.Operation()),
			slog.Duration("elapsed", elapsed),
			slog.Any("err", event.Err),
		)
	case h.slow > 0 && elapsed >= h.slow:
		h.log.WarnContext(ctx, "slow query",
			slog.String("operation", event.Operation()),
			slog.Duration("elapsed", elapsed),
		)
	}
}

func expectedQueryError(err error) bool {
	return errors.Is(mapReadError(err), store.ErrNotFound) || errors.Is(mapWriteError(err), store.ErrConflict)
}
