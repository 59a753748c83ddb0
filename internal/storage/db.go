package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"storefront-banners/internal/config"
)

// DB is an open SQL connection plus whatever owns the underlying pool.
type DB struct {
	*sqlx.DB
	pool *pgxpool.Pool
}

func (d *DB) Close() error {
	err := d.DB.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

// Open connects to the sqlite:// or postgres:// database in cfg.Database.URL.
// Postgres goes through a pgx pool exposed as database/sql for sqlx.
func Open(ctx context.Context, cfg config.Config) (*DB, error) {
	u, err := url.Parse(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.Database.MinConns)
		poolCfg.HealthCheckPeriod = time.Minute

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		return &DB{DB: sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"), pool: pool}, nil

	case "sqlite":
		// sqlite://file.db is relative, sqlite:///abs/file.db is absolute
		path := u.Host + u.Path
		db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		// a single writer connection serialises increments instead of
		// surfacing SQLITE_BUSY to callers
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping sqlite: %w", err)
		}
		return &DB{DB: db}, nil
	}
	return nil, fmt.Errorf("unsupported database scheme: %s (expected memory, sqlite or postgres)", u.Scheme)
}
