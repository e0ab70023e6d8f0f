package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/ignite/constituent-service/internal/domain"
	"github.com/ignite/constituent-service/internal/pkg/distlock"
	"github.com/ignite/constituent-service/internal/service/constituent"
)

const table = "constituents"

// filterColumns whitelists List filter keys. Values are always bound.
var filterColumns = map[string]string{
	constituent.FilterCounty: domain.ColCounty,
}

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ConstituentRepo implements constituent.Repository against PostgreSQL or SQLite.
type ConstituentRepo struct {
	db      *sql.DB
	tx      *sql.Tx // set on the repository handed to WithEmailLock callbacks
	dialect Dialect
	sb      sq.StatementBuilderType
}

// NewConstituentRepo creates a SQL-backed constituent repository.
func NewConstituentRepo(db *sql.DB, d Dialect) *ConstituentRepo {
	return &ConstituentRepo{db: db, dialect: d, sb: d.builder()}
}

var _ constituent.Repository = (*ConstituentRepo)(nil)

func (r *ConstituentRepo) selectRows() sq.SelectBuilder {
	return r.sb.Select(domain.Columns...).From(table)
}

func (r *ConstituentRepo) conn() dbtx {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// inTx runs fn in the bound transaction, or in a new one that is committed
// when fn succeeds.
func (r *ConstituentRepo) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}

// WithEmailLock runs fn inside one transaction. On PostgreSQL the
// transaction first takes an advisory lock on the email, so writers from
// every process queue behind each other without holding a second pooled
// connection. SQLite runs a single writer connection, which already
// serializes them.
func (r *ConstituentRepo) WithEmailLock(ctx context.Context, email string, fn func(constituent.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.inTx(ctx, "email lock", func(tx *sql.Tx) error {
		if r.dialect == Postgres {
			if err := distlock.AdvisoryXactLock(ctx, tx, "constituent:"+email); err != nil {
				return err
			}
		}
		return fn(&ConstituentRepo{tx: tx, dialect: r.dialect, sb: r.sb})
	})
}

func (r *ConstituentRepo) Create(ctx context.Context, c domain.Constituent) (*domain.Constituent, error) {
	q, args, err := r.sb.Insert(table).
		SetMap(c.Flatten().Map()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	var out *domain.Constituent
	err = r.inTx(ctx, "create", func(tx *sql.Tx) error {
		var id int64
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			if isDuplicate(err) {
				return constituent.ErrDuplicateKey
			}
			return fmt.Errorf("create constituent: %w", err)
		}

		out, err = r.scanOne(ctx, tx, r.selectRows().Where(sq.Eq{"id": id}))
		if err != nil {
			return fmt.Errorf("reload created constituent: %w", err)
		}
		if out == nil {
			return fmt.Errorf("reload created constituent %d: %w", id, constituent.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ConstituentRepo) GetByEmail(ctx context.Context, email string) (*domain.Constituent, error) {
	c, err := r.scanOne(ctx, r.conn(), r.selectRows().Where(sq.Eq{domain.ColEmail: email}))
	if err != nil {
		return nil, fmt.Errorf("get constituent: %w", err)
	}
	return c, nil
}

func (r *ConstituentRepo) List(ctx context.Context, f constituent.ListFilter) ([]domain.Constituent, error) {
	sel := r.selectRows().Limit(uint64(f.Limit)).Offset(uint64(f.Offset))

	keys := make([]string, 0, len(f.Filters))
	for k := range f.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		col, ok := filterColumns[k]
		if !ok {
			return nil, fmt.Errorf("%w: %q", constituent.ErrUnknownFilter, k)
		}
		sel = sel.Where(sq.Eq{col: f.Filters[k]})
	}

	return r.scanAll(ctx, sel, "list constituents")
}

func (r *ConstituentRepo) UpdateByEmail(ctx context.Context, c domain.Constituent) (*domain.Constituent, error) {
	set := c.Flatten().Map()
	delete(set, domain.ColEmail)
	delete(set, domain.ColCreatedAt)

	q, args, err := r.sb.Update(table).
		SetMap(set).
		Where(sq.Eq{domain.ColEmail: c.Email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var out *domain.Constituent
	err = r.inTx(ctx, "update", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("update constituent: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update constituent rows: %w", err)
		}
		if n == 0 {
			return constituent.ErrNotFound
		}

		out, err = r.scanOne(ctx, tx, r.selectRows().Where(sq.Eq{domain.ColEmail: c.Email}))
		if err != nil {
			return fmt.Errorf("reload updated constituent: %w", err)
		}
		if out == nil {
			return constituent.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ConstituentRepo) ListSignedUp(ctx context.Context, prefix string) ([]domain.Constituent, error) {
	sel := r.selectRows().
		Where(sq.Like{domain.ColCreatedAt: prefix + "%"}).
		OrderBy(domain.ColCreatedAt, domain.ColEmail)
	return r.scanAll(ctx, sel, "list signed up constituents")
}

// scanOne runs sel on q and returns nil when no row matches.
func (r *ConstituentRepo) scanOne(ctx context.Context, q dbtx, sel sq.SelectBuilder) (*domain.Constituent, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}
	row, err := scanRow(q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c := domain.FromRow(row)
	return &c, nil
}

func (r *ConstituentRepo) scanAll(ctx context.Context, sel sq.SelectBuilder, op string) ([]domain.Constituent, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}
	rows, err := r.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []domain.Constituent{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan constituent: %w", err)
		}
		out = append(out, domain.FromRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRow reads the columns of domain.Columns in order.
func scanRow(s scanner) (domain.Row, error) {
	var row domain.Row
	var unit sql.NullString
	err := s.Scan(
		&row.FirstName, &row.LastName, &row.Email,
		&row.HouseNumber, &row.Street, &unit,
		&row.City, &row.State, &row.ZipCode, &row.County,
		&row.CreatedAt,
	)
	if err != nil {
		return domain.Row{}, err
	}
	if unit.Valid {
		row.UnitOrApartment = &unit.String
	}
	return row, nil
}
