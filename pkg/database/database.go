package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/samandr77/crm/migrations"

	// database/sql drivers.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var ErrUnknownDialect = errors.New("unknown database dialect")

func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(s)) {
	case DialectPostgres:
		return DialectPostgres, nil
	case DialectSQLite:
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, s)
	}
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}

	return "sqlite"
}

func Connect(ctx context.Context, dialect Dialect, dsn string, maxConns int) (*sql.DB, error) {
	const connectTimeout = time.Second * 5

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	switch dialect {
	case DialectPostgres:
		if maxConns > 0 {
			db.SetMaxOpenConns(maxConns)
		}
	case DialectSQLite:
		// sqlite allows a single writer, the pool is pinned to one connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		_ = db.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err = db.PingContext(pingCtx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if dialect == DialectSQLite {
		err = applyPragmas(ctx, db, dsn)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB, dsn string) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}

	if !strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "mode=memory") {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, p := range pragmas {
		_, err := db.ExecContext(ctx, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	return nil
}

func UpMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	var gooseDialect goose.Dialect

	switch dialect {
	case DialectPostgres:
		gooseDialect = goose.DialectPostgres
	case DialectSQLite:
		gooseDialect = goose.DialectSQLite3
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	fsys, err := fs.Sub(migrations.FS, string(dialect))
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return fmt.Errorf("new goose provider: %w", err)
	}

	_, err = provider.Up(ctx)
	if err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return err
	}

	return nil
}
