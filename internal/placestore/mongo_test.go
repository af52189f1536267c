package placestore_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/placestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	logger := slog.Default()
	oid := primitive.NewObjectID()

	mt.Run("insert returns generated id", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		placeID, err := store.Insert(mt.Context(), models.Place{Name: "Marco Zero", City: "Recife"})

		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(placeID)
		assert.NoError(mt, err)
	})

	mt.Run("insert error", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		placeID, err := store.Insert(mt.Context(), models.Place{Name: "Marco Zero"})

		require.Empty(mt, placeID)
		require.ErrorContains(mt, err, "failed to insert place")
	})

	mt.Run("insert rejects reserved extra keys", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)

		for _, key := range []string{"_id", "name", "coordinates"} {
			placeID, err := store.Insert(mt.Context(), models.Place{
				Name:  "Marco Zero",
				Extra: map[string]any{key: "x"},
			})

			require.Empty(mt, placeID)
			require.ErrorIs(mt, err, placestore.ErrReservedField)
		}
	})

	mt.Run("find decodes documents", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: oid},
				{Key: "name", Value: "Marco Zero"},
				{Key: "city", Value: "Recife"},
				{Key: "description", Value: "Praça"},
				{Key: "coordinates", Value: bson.D{{Key: "latitude", Value: -8.063}, {Key: "longitude", Value: -34.871}}},
				{Key: "opening_hours", Value: "always"},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Sem coordenadas"},
				{Key: "city", Value: "Recife"},
				{Key: "coordinates", Value: bson.D{{Key: "latitude", Value: 1.5}, {Key: "longitude", Value: nil}}},
			},
		))

		places, err := store.Find(mt.Context(), models.PlaceFilter{City: "Recife"})

		require.NoError(mt, err)
		require.Len(mt, places, 2)
		assert.Equal(mt, oid.Hex(), places[0].ID)
		assert.Equal(mt, "Marco Zero", places[0].Name)
		coords, ok := places[0].Coordinates.Resolve()
		require.True(mt, ok)
		assert.InDelta(mt, -8.063, coords.Latitude, 1e-9)
		assert.Equal(mt, "always", places[0].Extra["opening_hours"])

		require.NotNil(mt, places[1].Coordinates)
		assert.Nil(mt, places[1].Coordinates.Longitude)
		_, ok = places[1].Coordinates.Resolve()
		assert.False(mt, ok)
	})

	mt.Run("find tolerates malformed documents", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Marco Zero"},
				{Key: "coordinates", Value: bson.D{{Key: "latitude", Value: -8.063}, {Key: "longitude", Value: -34.871}}},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Latitude as text"},
				{Key: "coordinates", Value: bson.D{{Key: "latitude", Value: "-8.05"}, {Key: "longitude", Value: int32(-34)}}},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Point as text"},
				{Key: "coordinates", Value: "-8.05,-34.9"},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: bson.D{{Key: "pt", Value: "Casa"}}},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Alto da Sé"},
				{Key: "coordinates", Value: bson.D{{Key: "latitude", Value: int64(-8)}, {Key: "longitude", Value: -34.84}}},
			},
		))

		places, err := store.Find(mt.Context(), models.PlaceFilter{})

		require.NoError(mt, err)
		require.Len(mt, places, 4)
		assert.Equal(mt, "Marco Zero", places[0].Name)

		assert.Equal(mt, "Latitude as text", places[1].Name)
		require.NotNil(mt, places[1].Coordinates)
		assert.Nil(mt, places[1].Coordinates.Latitude)
		require.NotNil(mt, places[1].Coordinates.Longitude)
		assert.InDelta(mt, -34.0, *places[1].Coordinates.Longitude, 1e-9)

		assert.Equal(mt, "Point as text", places[2].Name)
		assert.Nil(mt, places[2].Coordinates)

		coords, ok := places[3].Coordinates.Resolve()
		require.True(mt, ok)
		assert.InDelta(mt, -8.0, coords.Latitude, 1e-9)
	})

	mt.Run("find places missing coordinates", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		mt.ClearEvents()

		_, err := store.Find(mt.Context(), models.PlaceFilter{City: "Olinda", MissingCoordinates: true, Limit: 20})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assert.Equal(mt, int64(20), evt.Command.Lookup("limit").Int64())

		var filter struct {
			City        string        `bson:"city"`
			Coordinates bson.RawValue `bson:"coordinates"`
			Address     struct {
				NotIn []any `bson:"$nin"`
			} `bson:"address"`
			GeocodeAttempts struct {
				Not struct {
					AtLeast int `bson:"$gte"`
				} `bson:"$not"`
			} `bson:"geocode_attempts"`
		}
		require.NoError(mt, bson.Unmarshal(evt.Command.Lookup("filter").Document(), &filter))
		assert.Equal(mt, "Olinda", filter.City)
		assert.Equal(mt, bson.TypeNull, filter.Coordinates.Type)
		assert.Equal(mt, []any{nil, ""}, filter.Address.NotIn)
		assert.Equal(mt, models.MaxGeocodeAttempts, filter.GeocodeAttempts.Not.AtLeast)
	})

	mt.Run("find error", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 1, Message: "boom"}))

		places, err := store.Find(mt.Context(), models.PlaceFilter{})

		require.Nil(mt, places)
		require.ErrorContains(mt, err, "failed to query places")
	})

	mt.Run("get not found", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		place, err := store.Get(mt.Context(), oid.Hex())

		require.Nil(mt, place)
		require.ErrorIs(mt, err, placestore.ErrNotFound)
	})

	mt.Run("get malformed id", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)

		place, err := store.Get(mt.Context(), "not-an-object-id")

		require.Nil(mt, place)
		require.ErrorIs(mt, err, placestore.ErrNotFound)
	})

	mt.Run("get found", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Instituto Ricardo Brennand"},
			{Key: "city", Value: "Recife"},
		}))

		place, err := store.Get(mt.Context(), oid.Hex())

		require.NoError(mt, err)
		assert.Equal(mt, "Instituto Ricardo Brennand", place.Name)
		assert.Nil(mt, place.Coordinates)
	})

	mt.Run("update returns modified count", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		name := "Paço do Frevo"

		modified, err := store.Update(mt.Context(), oid.Hex(), models.PlaceUpdate{Name: &name})

		require.NoError(mt, err)
		assert.Equal(mt, int64(1), modified)
	})

	mt.Run("update with new address drops the location", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		mt.ClearEvents()
		address := "Rua da Aurora, 175"

		modified, err := store.Update(mt.Context(), oid.Hex(), models.PlaceUpdate{Address: &address, ResetLocation: true})

		require.NoError(mt, err)
		assert.Equal(mt, int64(1), modified)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		change := evt.Command.Lookup("updates", "0", "u").Document()
		assert.Equal(mt, address, change.Lookup("$set", "address").StringValue())
		for _, field := range []string{"coordinates", "geocode_attempts", "geocode_error"} {
			_, err = change.LookupErr("$unset", field)
			assert.NoError(mt, err, field)
		}
	})

	mt.Run("update keeps the location by default", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		mt.ClearEvents()
		desc := "Marco inicial da cidade"

		_, err := store.Update(mt.Context(), oid.Hex(), models.PlaceUpdate{Description: &desc})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		_, err = evt.Command.Lookup("updates", "0", "u").Document().LookupErr("$unset")
		assert.Error(mt, err)
	})

	mt.Run("empty update is a no-op", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)

		modified, err := store.Update(mt.Context(), oid.Hex(), models.PlaceUpdate{})

		require.NoError(mt, err)
		assert.Zero(mt, modified)
	})

	mt.Run("delete returns deleted count", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		deleted, err := store.Delete(mt.Context(), oid.Hex())

		require.NoError(mt, err)
		assert.Equal(mt, int64(1), deleted)
	})

	mt.Run("delete many by city", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		deleted, err := store.DeleteMany(mt.Context(), models.PlaceFilter{City: "Olinda"})

		require.NoError(mt, err)
		assert.Equal(mt, int64(3), deleted)
	})

	mt.Run("delete many places missing coordinates", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))
		mt.ClearEvents()

		deleted, err := store.DeleteMany(mt.Context(), models.PlaceFilter{MissingCoordinates: true})

		require.NoError(mt, err)
		assert.Equal(mt, int64(2), deleted)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		filter := evt.Command.Lookup("deletes", "0", "q").Document()
		assert.Equal(mt, bson.TypeNull, filter.Lookup("coordinates").Type)
		_, err = filter.LookupErr("geocode_attempts", "$not", "$gte")
		assert.NoError(mt, err)
		_, err = filter.LookupErr("city")
		assert.Error(mt, err)
	})

	mt.Run("set coordinates on missing place", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := store.SetCoordinates(mt.Context(), oid.Hex(), models.Coordinates{Latitude: 1, Longitude: 2})

		require.ErrorIs(mt, err, placestore.ErrNotFound)
	})

	mt.Run("set coordinates", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := store.SetCoordinates(mt.Context(), oid.Hex(), models.Coordinates{Latitude: 1, Longitude: 2})

		require.NoError(mt, err)
	})

	mt.Run("record geocode failure error", func(mt *mtest.T) {
		store := placestore.NewMongoStore(mt.Coll, logger)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 1, Message: "boom"}))

		err := store.RecordGeocodeFailure(mt.Context(), oid.Hex(), "no results")

		require.ErrorContains(mt, err, "failed to update geocoding error and number of attempts")
	})
}
