package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAppliesSchemaAndTriggers(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	for range schema {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for _, table := range notifyTables {
		mock.ExpectExec(regexp.QuoteMeta("DROP TRIGGER IF EXISTS " + table + "_notify_change")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("CREATE TRIGGER " + table + "_notify_change")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), conn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRollsBackOnFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS stock").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = Migrate(context.Background(), conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaDeclaresDecrementProcedure(t *testing.T) {
	var found bool
	for _, stmt := range schema {
		if regexp.MustCompile(`FUNCTION decrement_stock`).MatchString(stmt) {
			found = true
			assert.Contains(t, stmt, "FOR UPDATE")
			assert.Contains(t, stmt, "LEAST(cur.qty")
		}
	}
	assert.True(t, found)
}
