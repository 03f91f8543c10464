package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/pkg/database"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type Repository struct {
	db      *sql.DB
	dialect database.Dialect
	sb      sq.StatementBuilderType
}

func New(db *sql.DB, dialect database.Dialect) *Repository {
	var format sq.PlaceholderFormat = sq.Question
	if dialect == database.DialectPostgres {
		format = sq.Dollar
	}

	return &Repository{
		db:      db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// inTx runs fn in one transaction. Any error from fn rolls the whole unit back.
func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(fmt.Errorf("begin tx: %w", err))
	}

	defer func() { _ = tx.Rollback() }()

	err = fn(tx)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return mapErr(fmt.Errorf("commit tx: %w", err))
	}

	return nil
}

// forUpdate locks the selected rows until the end of the transaction on postgres.
// sqlite has a single writer connection, so there is nothing to lock.
func (r *Repository) forUpdate(b sq.SelectBuilder) sq.SelectBuilder {
	if r.dialect == database.DialectPostgres {
		return b.Suffix("FOR UPDATE")
	}

	return b
}

// visibleTo is the row filter shared by every read of customer owned data.
// It expects the owning customer joined as "c".
func visibleTo(caller entity.Caller) sq.Sqlizer {
	cond := sq.And{sq.Eq{"c.approved": true}}

	if !caller.IsAdmin() {
		cond = append(cond, sq.Eq{"c.assigned_to": caller.ID})
	}

	return cond
}

// mapErr converts driver errors into entity error kinds. Errors that already carry a kind pass through.
func mapErr(err error) error {
	if err == nil {
		return nil
	}

	for _, kind := range []error{
		entity.ErrValidation,
		entity.ErrAlreadyExists,
		entity.ErrNotFound,
		entity.ErrConflict,
		entity.ErrStorage,
		entity.ErrForbidden,
		entity.ErrUnauthorized,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", entity.ErrAlreadyExists, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: referenced record: %s", entity.ErrNotFound, pgErr.ConstraintName)
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: unique constraint", entity.ErrAlreadyExists)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: referenced record", entity.ErrNotFound)
		}
	}

	return fmt.Errorf("%w: %w", entity.ErrStorage, err)
}

func exec(ctx context.Context, q querier, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: build query: %w", entity.ErrStorage, err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapErr(err)
	}

	return n, nil
}

func queryRow(ctx context.Context, q querier, b sq.Sqlizer, dest ...any) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("%w: build query: %w", entity.ErrStorage, err)
	}

	err = q.QueryRowContext(ctx, query, args...).Scan(dest...)
	if err != nil {
		return mapErr(err)
	}

	return nil
}

// queryAll runs b and collects one value per row with scan.
func queryAll[T any](ctx context.Context, q querier, b sq.Sqlizer, scan func(scanner) (T, error)) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build query: %w", entity.ErrStorage, err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}

	defer rows.Close()

	items := make([]T, 0)

	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, mapErr(err)
		}

		items = append(items, item)
	}

	err = rows.Err()
	if err != nil {
		return nil, mapErr(err)
	}

	return items, nil
}

func count(ctx context.Context, q querier, b sq.SelectBuilder) (int, error) {
	var n int

	err := queryRow(ctx, q, b, &n)
	if err != nil {
		return 0, err
	}

	return n, nil
}
