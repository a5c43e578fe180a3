//go:build integration

package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresMigrate(t *testing.T) {
	ctx := context.Background()

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "boilerroom",
				"POSTGRES_PASSWORD": "boilerroom",
				"POSTGRES_DB":       "boilerroom",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf(
		"postgres://boilerroom:boilerroom@%s:%s/boilerroom?sslmode=disable",
		host, port.Port(),
	)

	require.NoError(t, Migrate(dsn))
	// running it again is a no-op
	require.NoError(t, Migrate(dsn))

	database, err := Open(DriverPostgres, dsn)
	require.NoError(t, err)
	defer database.Close()
	store := NewStore(database)

	game := portal()
	require.NoError(t, store.InsertGame(ctx, game))
	require.NoError(t, store.InsertGame(ctx, game))

	got, err := store.Game(ctx, 620)
	require.NoError(t, err)
	require.Equal(t, game.Released, got.Released)
	require.Equal(t, game.Developers, got.Developers)

	updated, err := store.UpdatePlaytime(ctx, 620, 8.5, sql.NullFloat64{Float64: 80.3, Valid: true})
	require.NoError(t, err)
	require.True(t, updated)

	require.NoError(t, store.EnqueueGame(ctx, "620"))
	ids, err := store.BufferedGames(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"620"}, ids)
}
