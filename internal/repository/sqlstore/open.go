// Package sqlstore implements the constituent repository over database/sql.
// One code path serves PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite);
// the Dialect picks placeholders, DDL and error classification.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ignite/constituent-service/internal/config"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Dialect names a supported database/sql driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect validates a configured driver name.
func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(driver) {
	case Postgres, SQLite:
		return Dialect(driver), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (d Dialect) placeholders() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

func (d Dialect) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.placeholders())
}

// Options configures Open.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// BusyTimeout applies to SQLite only.
	BusyTimeout time.Duration
}

// OptionsFromConfig maps the database config section onto Options.
func OptionsFromConfig(c config.DatabaseConfig) Options {
	return Options{
		Driver:          c.Driver,
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime(),
		BusyTimeout:     c.BusyTimeout(),
	}
}

// Open opens and pings a pooled database handle. SQLite is pinned to a single
// connection so an in-memory database is shared and writes never contend.
func Open(ctx context.Context, o Options) (*sql.DB, Dialect, error) {
	d, err := ParseDialect(o.Driver)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(string(d), o.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", d, err)
	}

	switch d {
	case SQLite:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	default:
		maxOpen, maxIdle := o.MaxOpenConns, o.MaxIdleConns
		if maxOpen <= 0 {
			maxOpen = 10
		}
		if maxIdle <= 0 {
			maxIdle = 3
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxIdle)
		db.SetConnMaxLifetime(o.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", d, err)
	}

	if d == SQLite {
		busy := o.BusyTimeout
		if busy <= 0 {
			busy = 5 * time.Second
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds())); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("set busy_timeout: %w", err)
		}
	}
	return db, d, nil
}
