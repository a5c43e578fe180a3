package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupMock(t testing.TB) (Store, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
	})
	return NewStore(sqlx.NewDb(conn, "sqlmock")), mock
}

func TestInsertGameRollsBack(t *testing.T) {
	store, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "Games"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO "Developers"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.InsertGame(context.Background(), GameRecord{
		GameId:     620,
		Name:       "Portal 2",
		Developers: []string{"Valve"},
	})
	require.ErrorContains(t, err, "insert developer")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertGameCommits(t *testing.T) {
	store, mock := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "Games"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO "Game_Genres"`).
		WithArgs(int64(620), int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.InsertGame(context.Background(), GameRecord{
		GameId: 620,
		Name:   "Portal 2",
		Genres: []int64{1},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetacriticScoreError(t *testing.T) {
	store, mock := setupMock(t)

	mock.ExpectQuery(`SELECT "metacritic_score"`).
		WillReturnError(sql.ErrConnDone)

	_, err := store.MetacriticScore(context.Background(), 620)
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePlaytimeError(t *testing.T) {
	store, mock := setupMock(t)

	mock.ExpectExec(`UPDATE "Games"`).
		WithArgs(8.5, sqlmock.AnyArg(), int64(620)).
		WillReturnError(errors.New("deadlock detected"))

	_, err := store.UpdatePlaytime(context.Background(), 620, 8.5, sql.NullFloat64{})
	require.ErrorContains(t, err, "deadlock detected")
	require.NoError(t, mock.ExpectationsWereMet())
}
