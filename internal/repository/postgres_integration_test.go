//go:build integration

package repository_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRepositoryAgainstPostgres(t *testing.T) {
	ctx := t.Context()

	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("waypoint"),
		postgres.WithUsername("waypoint"),
		postgres.WithPassword("waypoint"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := repository.NewRepository(pool, slog.Default())
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "schema creation must be repeatable")

	recifeID, err := repo.InsertCity(ctx, models.City{Name: "Recife", State: "PE"})
	require.NoError(t, err)
	_, err = repo.InsertCity(ctx, models.City{Name: "Campinas", State: "SP"})
	require.NoError(t, err)

	cities, err := repo.FetchCities(ctx, models.CityFilter{State: "PE", OrderBy: "name"})
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, recifeID, cities[0].ID)

	rows, err := repo.UpdateCity(ctx, recifeID, models.City{Name: "Recife", State: "Pernambuco"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	city, err := repo.GetCity(ctx, recifeID)
	require.NoError(t, err)
	assert.Equal(t, "Pernambuco", city.State)

	rows, err = repo.DeleteCity(ctx, recifeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	_, err = repo.GetCity(ctx, recifeID)
	require.ErrorIs(t, err, repository.ErrCityNotFound)
}
