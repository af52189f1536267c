// Package placestore keeps points of interest in a document store.
package placestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/olivere/elastic/v7"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Errors returned by every Store.
var (
	// ErrNotFound is returned when no place matches the requested id.
	ErrNotFound = errors.New("place not found")
	// ErrReservedField is returned when an extra field reuses a stored field name.
	ErrReservedField = errors.New("extra field uses a reserved name")
)

// Store is a document store holding places.
//
// Both backends write Place.Extra as top-level document fields and read every
// unknown top-level field back into Extra. A stored point with non-numeric
// components is returned without those components, and Find skips documents
// that cannot be decoded at all, so one bad record never fails a listing.
// A Find with a zero Limit returns every matching place.
type Store interface {
	Insert(ctx context.Context, place models.Place) (string, error)
	Find(ctx context.Context, filter models.PlaceFilter) ([]models.Place, error)
	Get(ctx context.Context, placeID string) (*models.Place, error)
	Update(ctx context.Context, placeID string, update models.PlaceUpdate) (int64, error)
	Delete(ctx context.Context, placeID string) (int64, error)
	DeleteMany(ctx context.Context, filter models.PlaceFilter) (int64, error)
	SetCoordinates(ctx context.Context, placeID string, coords models.Coordinates) error
	RecordGeocodeFailure(ctx context.Context, placeID string, errMsg string) error
}

// BackendType names a document store implementation.
type BackendType string

const (
	// BackendMongo stores places in a MongoDB collection.
	BackendMongo BackendType = "mongo"
	// BackendElastic stores places in an Elasticsearch index.
	BackendElastic BackendType = "elastic"
)

// Config holds the settings needed to open a place store.
type Config struct {
	Type            BackendType  // Type of backend to open
	MongoURI        string       // MongoDB connection string
	MongoDatabase   string       // MongoDB database name
	MongoCollection string       // MongoDB collection name
	ElasticURL      string       // Elasticsearch node URL
	ElasticIndex    string       // Elasticsearch index name
	Logger          *slog.Logger // Logger for the store
}

// CloseFunc releases the connection held by a store.
type CloseFunc func(ctx context.Context) error

// NewStore opens the backend selected by config.Type and returns the store
// together with the function that closes its connection.
func NewStore(ctx context.Context, config Config) (Store, CloseFunc, error) {
	switch config.Type {
	case BackendMongo:
		return newMongoStore(ctx, config)
	case BackendElastic:
		return newElasticStore(ctx, config)
	default:
		return nil, nil, fmt.Errorf("unsupported place backend: %s", config.Type)
	}
}

func newMongoStore(ctx context.Context, config Config) (Store, CloseFunc, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(config.MongoDatabase).Collection(config.MongoCollection)

	return NewMongoStore(coll, config.Logger), client.Disconnect, nil
}

func newElasticStore(ctx context.Context, config Config) (Store, CloseFunc, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(config.ElasticURL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	store := NewElasticStore(client, config.ElasticIndex, config.Logger)
	if err = store.EnsureIndex(ctx); err != nil {
		client.Stop()
		return nil, nil, err
	}

	closeFn := func(context.Context) error {
		client.Stop()
		return nil
	}

	return store, closeFn, nil
}
