package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samandr77/crm/pkg/database"
)

// SetupTestDatabase opens a fresh in-memory sqlite database with every migration applied.
// The database lives as long as the test.
func SetupTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	db, err := database.Connect(ctx, database.DialectSQLite, ":memory:", 1)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	err = database.UpMigrations(ctx, db, database.DialectSQLite)
	require.NoError(t, err)

	return db
}

// SetupTestRepository is SetupTestDatabase wrapped in a Repository.
func SetupTestRepository(t *testing.T) *Repository {
	t.Helper()

	return New(SetupTestDatabase(t), database.DialectSQLite)
}
