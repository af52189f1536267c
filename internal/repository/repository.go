package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool used by the repository.
// pgxmock pools satisfy it as well.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	EnsureSchema(ctx context.Context) error
	InsertCity(ctx context.Context, city models.City) (int64, error)
	FetchCities(ctx context.Context, filter models.CityFilter) ([]models.City, error)
	GetCity(ctx context.Context, cityID int64) (*models.City, error)
	UpdateCity(ctx context.Context, cityID int64, city models.City) (int64, error)
	DeleteCity(ctx context.Context, cityID int64) (int64, error)
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
