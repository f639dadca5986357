package mysql_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mysqlrepo "triposo/internal/storage/mysql"
)

func TestRepo_LogMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO triposo_misses")).
		WithArgs(sqlmock.AnyArg(), "location", "id=Atlantis").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := mysqlrepo.New(db)
	require.NoError(t, repo.LogMiss(context.Background(), "location", "id=Atlantis"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_ListMisses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"resource", "query", "hits", "last_seen"}).
		AddRow("location", "id=Atlantis", 3, now).
		AddRow("day_planner", "location_id=Atlantis", 1, now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM triposo_misses")).WithArgs(50).WillReturnRows(rows)

	got, err := mysqlrepo.New(db).ListMisses(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "location", got[0].Resource)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, now, got[0].LastSeen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS triposo_misses")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, mysqlrepo.New(db).Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
