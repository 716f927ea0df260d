package db

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/civic-backend/migrations"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	conn, mock := newMock(t)
	fsys := fstest.MapFS{
		"002_second.sql": {Data: []byte("CREATE TABLE b (id INT)")},
		"001_first.sql":  {Data: []byte("CREATE TABLE a (id INT)")},
		"README.md":      {Data: []byte("skip")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM schema_migrations WHERE name = \$1`).
		WithArgs("001_first.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM schema_migrations WHERE name = \$1`).
		WithArgs("002_second.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE b \(id INT\)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("002_second.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), conn, fsys))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_RollsBackFailedMigration(t *testing.T) {
	conn, mock := newMock(t)
	fsys := fstest.MapFS{
		"001_broken.sql": {Data: []byte("CREATE TABLE")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT`).WithArgs("001_broken.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE`).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err := RunMigrations(context.Background(), conn, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_broken.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrations(t *testing.T) {
	data, err := migrations.FS.ReadFile("001_init.sql")
	require.NoError(t, err)

	schema := string(data)
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS complaints")
	assert.Contains(t, schema, "reward_points_ledger")
	assert.Contains(t, schema, "WHERE reason = 'Complaint Resolved'")
}
