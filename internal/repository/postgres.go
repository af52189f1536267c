package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCityNotFound is returned when no city matches the requested id.
	ErrCityNotFound = errors.New("city not found")
	// ErrInvalidOrder is returned when a listing is ordered by an unknown column.
	ErrInvalidOrder = errors.New("invalid order column")
)

// orderColumns are the columns a city listing may be ordered by.
var orderColumns = map[string]struct{}{"id": {}, "name": {}, "state": {}}

// NewDatabase opens a connection pool to PostgreSQL and verifies it with a ping.
// The caller owns the pool and must close it.
func NewDatabase(ctx context.Context, host, port, user, password, dbname string) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, port),
		Path:     dbname,
		RawQuery: "sslmode=disable",
	}

	pool, err := pgxpool.New(ctx, dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the cities table if it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS cities (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL, state TEXT NOT NULL);`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create cities table: %w", err)
	}

	return nil
}

// InsertCity stores a new city and returns the id assigned by the database.
func (r *Repository) InsertCity(ctx context.Context, city models.City) (int64, error) {
	query := `INSERT INTO cities (name, state) VALUES ($1, $2) RETURNING id;`

	var cityID int64
	if err := r.db.QueryRow(ctx, query, city.Name, city.State).Scan(&cityID); err != nil {
		return 0, fmt.Errorf("failed to insert city: %w", err)
	}

	r.log.DebugContext(ctx, "City inserted", "id", cityID, "name", city.Name, "state", city.State)

	return cityID, nil
}

// FetchCities lists cities matching the filter. Empty filter fields are ignored;
// OrderBy must be one of id, name or state.
//
// Returns:
// - A slice of models.City, empty when nothing matches.
// - ErrInvalidOrder for an unknown order column, or a wrapped query/scan error.
func (r *Repository) FetchCities(ctx context.Context, filter models.CityFilter) ([]models.City, error) {
	query, args, err := buildFetchCitiesQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	cities := make([]models.City, 0)
	for rows.Next() {
		var city models.City
		if errScan := rows.Scan(&city.ID, &city.Name, &city.State); errScan != nil {
			return nil, fmt.Errorf("failed to scan city: %w", errScan)
		}
		cities = append(cities, city)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return cities, nil
}

func buildFetchCitiesQuery(filter models.CityFilter) (string, []any, error) {
	var (
		builder strings.Builder
		clauses []string
		args    []any
	)

	builder.WriteString("SELECT id, name, state FROM cities")

	if filter.Name != "" {
		args = append(args, filter.Name)
		clauses = append(clauses, fmt.Sprintf("name = $%d", len(args)))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		clauses = append(clauses, fmt.Sprintf("state = $%d", len(args)))
	}
	if len(clauses) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(clauses, " AND "))
	}

	if filter.OrderBy != "" {
		if _, ok := orderColumns[filter.OrderBy]; !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidOrder, filter.OrderBy)
		}
		builder.WriteString(" ORDER BY ")
		builder.WriteString(filter.OrderBy)
	}

	builder.WriteString(";")

	return builder.String(), args, nil
}

// GetCity returns the city with the given id, or ErrCityNotFound.
func (r *Repository) GetCity(ctx context.Context, cityID int64) (*models.City, error) {
	query := `SELECT id, name, state FROM cities WHERE id = $1;`

	var city models.City
	err := r.db.QueryRow(ctx, query, cityID).Scan(&city.ID, &city.Name, &city.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}

	return &city, nil
}

// UpdateCity overwrites the name and state of a city and returns the number of updated rows.
func (r *Repository) UpdateCity(ctx context.Context, cityID int64, city models.City) (int64, error) {
	query := `UPDATE cities SET name = $1, state = $2 WHERE id = $3;`

	tag, err := r.db.Exec(ctx, query, city.Name, city.State, cityID)
	if err != nil {
		return 0, fmt.Errorf("failed to update city: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteCity removes a city and returns the number of deleted rows.
func (r *Repository) DeleteCity(ctx context.Context, cityID int64) (int64, error) {
	query := `DELETE FROM cities WHERE id = $1;`

	tag, err := r.db.Exec(ctx, query, cityID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete city: %w", err)
	}

	return tag.RowsAffected(), nil
}
