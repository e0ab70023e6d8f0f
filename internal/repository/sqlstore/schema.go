package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/constituent-service/internal/domain"
	"github.com/ignite/constituent-service/internal/pkg/logger"
)

const postgresDDL = `
CREATE TABLE constituents (
	id                BIGSERIAL PRIMARY KEY,
	first_name        TEXT NOT NULL,
	last_name         TEXT NOT NULL,
	email             TEXT NOT NULL UNIQUE,
	house_number      INTEGER NOT NULL,
	street            TEXT NOT NULL,
	unit_or_apartment TEXT,
	city              TEXT NOT NULL,
	state             TEXT NOT NULL,
	zip_code          TEXT NOT NULL,
	county            TEXT NOT NULL,
	created_at        TEXT NOT NULL
)`

const sqliteDDL = `
CREATE TABLE constituents (
	id                INTEGER PRIMARY KEY,
	first_name        TEXT NOT NULL,
	last_name         TEXT NOT NULL,
	email             TEXT NOT NULL UNIQUE,
	house_number      INTEGER NOT NULL,
	street            TEXT NOT NULL,
	unit_or_apartment TEXT,
	city              TEXT NOT NULL,
	state             TEXT NOT NULL,
	zip_code          TEXT NOT NULL,
	county            TEXT NOT NULL,
	created_at        TEXT NOT NULL
)`

func strRef(s string) *string { return &s }

// SeedConstituents are inserted when the table is first created.
var SeedConstituents = []domain.Constituent{
	{
		FirstName: "Helly", LastName: "Rhoades", Email: "heyrhoades5@gmail.com",
		Address: domain.Address{
			HouseNumber: 90, Street: "Lumon St.", UnitOrApartment: strRef("B"),
			City: "Somewhere", State: "PA", ZipCode: "18195", County: "Lehigh",
		},
		SignedUp: "2025-04-01",
	},
	{
		FirstName: "John", LastName: "Bob", Email: "jbob23@yahoo.com",
		Address: domain.Address{
			HouseNumber: 1234, Street: "Place St.",
			City: "Somewhere", State: "NJ", ZipCode: "08111", County: "Sussex",
		},
		SignedUp: "2025-04-09",
	},
	{
		FirstName: "Jane", LastName: "Smith", Email: "jane123smith@outlook.com",
		Address: domain.Address{
			HouseNumber: 6, Street: "Other Ave.",
			City: "Townie", State: "NJ", ZipCode: "08113", County: "Sussex",
		},
		SignedUp: "2025-04-09",
	},
}

// TableExists reports whether the constituents table is present.
func TableExists(ctx context.Context, db *sql.DB, d Dialect) (bool, error) {
	var q string
	switch d {
	case Postgres:
		q = `SELECT COUNT(*) FROM pg_tables WHERE schemaname = current_schema() AND tablename = $1`
	default:
		q = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}
	var n int
	if err := db.QueryRowContext(ctx, q, table).Scan(&n); err != nil {
		return false, fmt.Errorf("check %s table: %w", table, err)
	}
	return n > 0, nil
}

// EnsureSchema creates the constituents table and inserts the seed rows when
// the table is missing. An existing table is left untouched. Reports whether
// the table was created.
func EnsureSchema(ctx context.Context, db *sql.DB, d Dialect) (bool, error) {
	exists, err := TableExists(ctx, db, d)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	ddl := sqliteDDL
	if d == Postgres {
		ddl = postgresDDL
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin schema: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return false, fmt.Errorf("create %s table: %w", table, err)
	}

	sb := d.builder()
	for _, c := range SeedConstituents {
		q, args, err := sb.Insert(table).SetMap(c.Flatten().Map()).ToSql()
		if err != nil {
			return false, fmt.Errorf("build seed insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return false, fmt.Errorf("seed constituent: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit schema: %w", err)
	}
	logger.Info("created constituents table", "dialect", string(d), "seeded", len(SeedConstituents))
	return true, nil
}
