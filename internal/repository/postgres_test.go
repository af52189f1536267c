package repository_test

import (
	"log/slog"
	"regexp"
	"testing"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cityColumns = []string{"id", "name", "state"}

func newMockRepository(t *testing.T) (pgxmock.PgxPoolIface, *repository.Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock, repository.NewRepository(mock, slog.Default())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	query := `CREATE TABLE IF NOT EXISTS cities (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL, state TEXT NOT NULL);`

	t.Run("error - create table", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta(query)).WillReturnError(assert.AnError)

		err := repo.EnsureSchema(ctx)

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to create cities table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - create table", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta(query)).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

		require.NoError(t, repo.EnsureSchema(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInsertCity(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	city := models.City{Name: "Recife", State: "PE"}
	query := `INSERT INTO cities (name, state) VALUES ($1, $2) RETURNING id;`

	t.Run("error - insert city", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("Recife", "PE").WillReturnError(assert.AnError)

		cityID, err := repo.InsertCity(ctx, city)

		require.Zero(t, cityID)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to insert city")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - insert city", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("Recife", "PE").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		cityID, err := repo.InsertCity(ctx, city)

		require.NoError(t, err)
		assert.Equal(t, int64(42), cityID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFetchCities(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success - no filter", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, state FROM cities;`)).
			WillReturnRows(pgxmock.NewRows(cityColumns).
				AddRow(int64(1), "Recife", "PE").
				AddRow(int64(2), "Olinda", "PE"))

		cities, err := repo.FetchCities(ctx, models.CityFilter{})

		require.NoError(t, err)
		assert.Equal(t, []models.City{
			{ID: 1, Name: "Recife", State: "PE"},
			{ID: 2, Name: "Olinda", State: "PE"},
		}, cities)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - filter and order", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)
		query := `SELECT id, name, state FROM cities WHERE name = $1 AND state = $2 ORDER BY name;`

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("Recife", "PE").
			WillReturnRows(pgxmock.NewRows(cityColumns).AddRow(int64(1), "Recife", "PE"))

		cities, err := repo.FetchCities(ctx, models.CityFilter{Name: "Recife", State: "PE", OrderBy: "name"})

		require.NoError(t, err)
		require.Len(t, cities, 1)
		assert.Equal(t, "Recife", cities[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - state only", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)
		query := `SELECT id, name, state FROM cities WHERE state = $1;`

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("SP").
			WillReturnRows(pgxmock.NewRows(cityColumns))

		cities, err := repo.FetchCities(ctx, models.CityFilter{State: "SP"})

		require.NoError(t, err)
		assert.Empty(t, cities)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - invalid order", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		cities, err := repo.FetchCities(ctx, models.CityFilter{OrderBy: "name; DROP TABLE cities"})

		require.Nil(t, cities)
		require.ErrorIs(t, err, repository.ErrInvalidOrder)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query cities", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, state FROM cities;`)).WillReturnError(assert.AnError)

		cities, err := repo.FetchCities(ctx, models.CityFilter{})

		require.Nil(t, cities)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to query cities")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan city", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, state FROM cities;`)).
			WillReturnRows(pgxmock.NewRows(cityColumns).AddRow("invalid_id", "Recife", "PE"))

		cities, err := repo.FetchCities(ctx, models.CityFilter{})

		require.Nil(t, cities)
		require.ErrorContains(t, err, "failed to scan city")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - rows error", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, state FROM cities;`)).
			WillReturnRows(pgxmock.NewRows(cityColumns).AddRow(int64(1), "Recife", "PE").
				RowError(1, assert.AnError))

		cities, err := repo.FetchCities(ctx, models.CityFilter{})

		require.Nil(t, cities)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to read row")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetCity(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	query := `SELECT id, name, state FROM cities WHERE id = $1;`

	t.Run("error - not found", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(7)).WillReturnError(pgx.ErrNoRows)

		city, err := repo.GetCity(ctx, 7)

		require.Nil(t, city)
		require.ErrorIs(t, err, repository.ErrCityNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query city", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(7)).WillReturnError(assert.AnError)

		city, err := repo.GetCity(ctx, 7)

		require.Nil(t, city)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to get city")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - get city", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows(cityColumns).AddRow(int64(7), "Natal", "RN"))

		city, err := repo.GetCity(ctx, 7)

		require.NoError(t, err)
		assert.Equal(t, &models.City{ID: 7, Name: "Natal", State: "RN"}, city)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateCity(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	query := `UPDATE cities SET name = $1, state = $2 WHERE id = $3;`
	city := models.City{Name: "Natal", State: "RN"}

	t.Run("error - update city", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("Natal", "RN", int64(3)).WillReturnError(assert.AnError)

		rows, err := repo.UpdateCity(ctx, 3, city)

		require.Zero(t, rows)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to update city")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - update city", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("Natal", "RN", int64(3)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		rows, err := repo.UpdateCity(ctx, 3, city)

		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteCity(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	query := `DELETE FROM cities WHERE id = $1;`

	t.Run("error - delete city", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(int64(3)).WillReturnError(assert.AnError)

		rows, err := repo.DeleteCity(ctx, 3)

		require.Zero(t, rows)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to delete city")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - nothing deleted", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMockRepository(t)

		mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		rows, err := repo.DeleteCity(ctx, 3)

		require.NoError(t, err)
		assert.Zero(t, rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
