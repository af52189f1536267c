package placestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps places in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
	log  *slog.Logger
}

// placeDocument is the stored shape of a place. Unknown fields land in Extra.
type placeDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	City            string             `bson:"city"`
	Description     string             `bson:"description"`
	Address         string             `bson:"address,omitempty"`
	Coordinates     *models.GeoPoint   `bson:"coordinates,omitempty"`
	GeocodeAttempts int                `bson:"geocode_attempts,omitempty"`
	GeocodeError    string             `bson:"geocode_error,omitempty"`
	Extra           bson.M             `bson:",inline"`
}

// storedPlace is the read shape of a place. Coordinates stay raw so a
// malformed point written by another client does not fail the whole read.
type storedPlace struct {
	ID              primitive.ObjectID `bson:"_id"`
	Name            string             `bson:"name"`
	City            string             `bson:"city"`
	Description     string             `bson:"description"`
	Address         string             `bson:"address"`
	Coordinates     bson.RawValue      `bson:"coordinates"`
	GeocodeAttempts int                `bson:"geocode_attempts"`
	GeocodeError    string             `bson:"geocode_error"`
	Extra           bson.M             `bson:",inline"`
}

// NewMongoStore creates a store over an existing collection.
func NewMongoStore(coll *mongo.Collection, log *slog.Logger) *MongoStore {
	return &MongoStore{coll: coll, log: log}
}

func toDocument(place models.Place) placeDocument {
	return placeDocument{
		Name:            place.Name,
		City:            place.City,
		Description:     place.Description,
		Address:         place.Address,
		Coordinates:     place.Coordinates,
		GeocodeAttempts: place.GeocodeAttempts,
		GeocodeError:    place.GeocodeError,
		Extra:           place.Extra,
	}
}

func (doc storedPlace) toPlace() models.Place {
	place := models.Place{
		ID:              doc.ID.Hex(),
		Name:            doc.Name,
		City:            doc.City,
		Description:     doc.Description,
		Address:         doc.Address,
		Coordinates:     decodeGeoPoint(doc.Coordinates),
		GeocodeAttempts: doc.GeocodeAttempts,
		GeocodeError:    doc.GeocodeError,
	}
	if len(doc.Extra) > 0 {
		place.Extra = doc.Extra
	}

	return place
}

// decodeGeoPoint keeps the numeric components of a stored point. Anything
// else, including strings, is treated as missing.
func decodeGeoPoint(raw bson.RawValue) *models.GeoPoint {
	doc, ok := raw.DocumentOK()
	if !ok {
		return nil
	}

	lat, latOK := numeric(doc.Lookup("latitude"))
	lon, lonOK := numeric(doc.Lookup("longitude"))
	if !latOK && !lonOK {
		return nil
	}

	point := &models.GeoPoint{}
	if latOK {
		point.Latitude = &lat
	}
	if lonOK {
		point.Longitude = &lon
	}

	return point
}

func numeric(val bson.RawValue) (float64, bool) {
	switch val.Type {
	case bson.TypeDouble:
		return val.DoubleOK()
	case bson.TypeInt32:
		v, ok := val.Int32OK()
		return float64(v), ok
	case bson.TypeInt64:
		v, ok := val.Int64OK()
		return float64(v), ok
	default:
		return 0, false
	}
}

func mongoFilter(filter models.PlaceFilter) bson.M {
	query := bson.M{}
	if filter.City != "" {
		query["city"] = filter.City
	}
	if filter.MissingCoordinates {
		query["coordinates"] = nil
		query["address"] = bson.M{"$nin": bson.A{nil, ""}}
		query["geocode_attempts"] = bson.M{"$not": bson.M{"$gte": models.MaxGeocodeAttempts}}
	}

	return query
}

func parseObjectID(placeID string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(placeID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", ErrNotFound, placeID)
	}

	return oid, nil
}

// Insert stores a new place and returns its generated id.
func (ms *MongoStore) Insert(ctx context.Context, place models.Place) (string, error) {
	if key, reserved := models.ReservedExtraKey(place.Extra); reserved {
		return "", fmt.Errorf("%w: %s", ErrReservedField, key)
	}

	res, err := ms.coll.InsertOne(ctx, toDocument(place))
	if err != nil {
		return "", fmt.Errorf("failed to insert place: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}

	ms.log.DebugContext(ctx, "Place inserted", "id", oid.Hex(), "name", place.Name, "city", place.City)

	return oid.Hex(), nil
}

// Find returns the places matching the filter in insertion order.
func (ms *MongoStore) Find(ctx context.Context, filter models.PlaceFilter) ([]models.Place, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := ms.coll.Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query places: %w", err)
	}
	defer cursor.Close(ctx)

	places := make([]models.Place, 0)
	for cursor.Next(ctx) {
		var doc storedPlace
		if err = cursor.Decode(&doc); err != nil {
			ms.log.WarnContext(ctx, "Skipping undecodable place document",
				"id", cursor.Current.Lookup("_id").String(), "error", err)
			continue
		}
		places = append(places, doc.toPlace())
	}

	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate places: %w", err)
	}

	return places, nil
}

// Get returns a single place, or ErrNotFound.
func (ms *MongoStore) Get(ctx context.Context, placeID string) (*models.Place, error) {
	oid, err := parseObjectID(placeID)
	if err != nil {
		return nil, err
	}

	var doc storedPlace
	err = ms.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}

	place := doc.toPlace()

	return &place, nil
}

// Update applies the non-nil fields of update and returns the modified count.
func (ms *MongoStore) Update(ctx context.Context, placeID string, update models.PlaceUpdate) (int64, error) {
	oid, err := parseObjectID(placeID)
	if err != nil {
		return 0, err
	}
	if update.IsEmpty() {
		return 0, nil
	}

	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}

	change := bson.M{"$set": set}
	if update.ResetLocation {
		change["$unset"] = bson.M{"coordinates": "", "geocode_attempts": "", "geocode_error": ""}
	}

	res, err := ms.coll.UpdateOne(ctx, bson.M{"_id": oid}, change)
	if err != nil {
		return 0, fmt.Errorf("failed to update place: %w", err)
	}

	return res.ModifiedCount, nil
}

// Delete removes a place and returns the deleted count.
func (ms *MongoStore) Delete(ctx context.Context, placeID string) (int64, error) {
	oid, err := parseObjectID(placeID)
	if err != nil {
		return 0, err
	}

	res, err := ms.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete place: %w", err)
	}

	return res.DeletedCount, nil
}

// DeleteMany removes every place matching the filter and returns the deleted count.
func (ms *MongoStore) DeleteMany(ctx context.Context, filter models.PlaceFilter) (int64, error) {
	res, err := ms.coll.DeleteMany(ctx, mongoFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to delete places: %w", err)
	}

	return res.DeletedCount, nil
}

// SetCoordinates stores geocoded coordinates and clears the last geocoding error.
func (ms *MongoStore) SetCoordinates(ctx context.Context, placeID string, coords models.Coordinates) error {
	oid, err := parseObjectID(placeID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set":   bson.M{"coordinates": models.NewGeoPoint(coords)},
		"$unset": bson.M{"geocode_error": ""},
	}

	res, err := ms.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update place coordinates: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// RecordGeocodeFailure increments the failed lookup counter and stores the error message.
func (ms *MongoStore) RecordGeocodeFailure(ctx context.Context, placeID string, errMsg string) error {
	oid, err := parseObjectID(placeID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$inc": bson.M{"geocode_attempts": 1},
		"$set": bson.M{"geocode_error": errMsg},
	}

	if _, err = ms.coll.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("failed to update geocoding error and number of attempts: %w", err)
	}

	return nil
}
