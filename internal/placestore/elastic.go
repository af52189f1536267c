package placestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/google/uuid"
	"github.com/olivere/elastic/v7"
)

const (
	maxSearchResults = 10000 // default search window of an index
	scrollPageSize   = 1000  // hits per scroll round trip
	scrollKeepAlive  = "1m"

	refreshWaitFor = "wait_for"
)

// placesMapping keeps the exact-match fields as keywords.
const placesMapping = `{
	"mappings": {
		"properties": {
			"name":             {"type": "text"},
			"city":             {"type": "keyword"},
			"description":      {"type": "text"},
			"address":          {"type": "keyword"},
			"coordinates":      {"properties": {"latitude": {"type": "double"}, "longitude": {"type": "double"}}},
			"geocode_attempts": {"type": "integer"},
			"geocode_error":    {"type": "keyword"}
		}
	}
}`

// ElasticStore keeps places in an Elasticsearch index.
type ElasticStore struct {
	client *elastic.Client
	index  string
	log    *slog.Logger
}

// NewElasticStore creates a store over an existing client.
func NewElasticStore(client *elastic.Client, index string, log *slog.Logger) *ElasticStore {
	return &ElasticStore{client: client, index: index, log: log}
}

// EnsureIndex creates the index with its mapping if it does not exist yet.
func (es *ElasticStore) EnsureIndex(ctx context.Context) error {
	exists, err := es.client.IndexExists(es.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", es.index, err)
	}
	if exists {
		return nil
	}

	if _, err = es.client.CreateIndex(es.index).BodyString(placesMapping).Do(ctx); err != nil {
		return fmt.Errorf("failed to create index %s: %w", es.index, err)
	}

	es.log.InfoContext(ctx, "Elasticsearch index created", "index", es.index)

	return nil
}

func elasticQuery(filter models.PlaceFilter) elastic.Query {
	query := elastic.NewBoolQuery()
	if filter.City != "" {
		query = query.Filter(elastic.NewTermQuery("city", filter.City))
	}
	if filter.MissingCoordinates {
		query = query.
			Filter(elastic.NewExistsQuery("address")).
			MustNot(
				elastic.NewTermQuery("address", ""),
				elastic.NewExistsQuery("coordinates.latitude"),
				elastic.NewRangeQuery("geocode_attempts").Gte(models.MaxGeocodeAttempts),
			)
	}

	return query
}

// encodePlace flattens a place into its stored document: Extra fields sit
// next to the known ones, as in the Mongo store.
func encodePlace(place models.Place) map[string]any {
	doc := make(map[string]any, len(place.Extra)+7)
	maps.Copy(doc, place.Extra)

	doc["name"] = place.Name
	doc["city"] = place.City
	doc["description"] = place.Description
	if place.Address != "" {
		doc["address"] = place.Address
	}
	if place.Coordinates != nil {
		doc["coordinates"] = place.Coordinates
	}
	if place.GeocodeAttempts > 0 {
		doc["geocode_attempts"] = place.GeocodeAttempts
	}
	if place.GeocodeError != "" {
		doc["geocode_error"] = place.GeocodeError
	}

	return doc
}

// decodePlace reads a stored document. Unknown top-level fields go to Extra;
// an older nested "extra" object is merged into it.
func decodePlace(placeID string, source json.RawMessage) (models.Place, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(source, &fields); err != nil {
		return models.Place{}, fmt.Errorf("failed to decode place %s: %w", placeID, err)
	}

	place := models.Place{ID: placeID}
	extra := map[string]any{}
	var err error

	for key, raw := range fields {
		switch key {
		case "name":
			err = json.Unmarshal(raw, &place.Name)
		case "city":
			err = json.Unmarshal(raw, &place.City)
		case "description":
			err = json.Unmarshal(raw, &place.Description)
		case "address":
			err = json.Unmarshal(raw, &place.Address)
		case "coordinates":
			place.Coordinates = decodeGeoPointJSON(raw)
		case "geocode_attempts":
			err = json.Unmarshal(raw, &place.GeocodeAttempts)
		case "geocode_error":
			err = json.Unmarshal(raw, &place.GeocodeError)
		case "extra":
			var nested map[string]any
			if json.Unmarshal(raw, &nested) == nil {
				maps.Copy(extra, nested)
			}
		default:
			var value any
			err = json.Unmarshal(raw, &value)
			extra[key] = value
		}
		if err != nil {
			return models.Place{}, fmt.Errorf("failed to decode field %s of place %s: %w", key, placeID, err)
		}
	}

	if len(extra) > 0 {
		place.Extra = extra
	}

	return place, nil
}

// decodeGeoPointJSON keeps the numeric components of a stored point.
func decodeGeoPointJSON(raw json.RawMessage) *models.GeoPoint {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	lat, latOK := fields["latitude"].(float64)
	lon, lonOK := fields["longitude"].(float64)
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

// appendHits decodes search hits, skipping documents that cannot be decoded.
func (es *ElasticStore) appendHits(ctx context.Context, places []models.Place, hits []*elastic.SearchHit) []models.Place {
	for _, hit := range hits {
		place, err := decodePlace(hit.Id, hit.Source)
		if err != nil {
			es.log.WarnContext(ctx, "Skipping undecodable place document", "id", hit.Id, "error", err)
			continue
		}
		places = append(places, place)
	}

	return places
}

// Insert indexes a new place under a random UUID and returns the id.
func (es *ElasticStore) Insert(ctx context.Context, place models.Place) (string, error) {
	if key, reserved := models.ReservedExtraKey(place.Extra); reserved {
		return "", fmt.Errorf("%w: %s", ErrReservedField, key)
	}

	placeID := uuid.NewString()

	_, err := es.client.Index().
		Index(es.index).
		Id(placeID).
		BodyJson(encodePlace(place)).
		Refresh(refreshWaitFor).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to insert place: %w", err)
	}

	es.log.DebugContext(ctx, "Place indexed", "id", placeID, "name", place.Name, "city", place.City)

	return placeID, nil
}

// Find returns the places matching the filter in index order. Limits within
// the search window take one request; anything larger is scrolled.
func (es *ElasticStore) Find(ctx context.Context, filter models.PlaceFilter) ([]models.Place, error) {
	if filter.Limit > 0 && filter.Limit <= maxSearchResults {
		res, err := es.client.Search().
			Index(es.index).
			Query(elasticQuery(filter)).
			Sort("_doc", true).
			Size(int(filter.Limit)).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query places: %w", err)
		}

		return es.appendHits(ctx, make([]models.Place, 0, len(res.Hits.Hits)), res.Hits.Hits), nil
	}

	return es.scroll(ctx, filter)
}

func (es *ElasticStore) scroll(ctx context.Context, filter models.PlaceFilter) ([]models.Place, error) {
	scroller := es.client.Scroll(es.index).
		Query(elasticQuery(filter)).
		Sort("_doc", true).
		Size(scrollPageSize).
		KeepAlive(scrollKeepAlive)
	defer func() {
		if err := scroller.Clear(context.WithoutCancel(ctx)); err != nil {
			es.log.DebugContext(ctx, "Failed to clear scroll", "error", err)
		}
	}()

	places := make([]models.Place, 0)
	for {
		res, err := scroller.Do(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query places: %w", err)
		}
		if res.Hits == nil || len(res.Hits.Hits) == 0 {
			break
		}

		places = es.appendHits(ctx, places, res.Hits.Hits)
		if filter.Limit > 0 && int64(len(places)) >= filter.Limit {
			return places[:filter.Limit], nil
		}
	}

	return places, nil
}

// Get returns a single place, or ErrNotFound.
func (es *ElasticStore) Get(ctx context.Context, placeID string) (*models.Place, error) {
	res, err := es.client.Get().Index(es.index).Id(placeID).Do(ctx)
	if elastic.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	if !res.Found {
		return nil, ErrNotFound
	}

	place, err := decodePlace(res.Id, res.Source)
	if err != nil {
		return nil, err
	}

	return &place, nil
}

func (es *ElasticStore) updateDoc(ctx context.Context, placeID string, doc map[string]any) (int64, error) {
	res, err := es.client.Update().
		Index(es.index).
		Id(placeID).
		Doc(doc).
		Refresh(refreshWaitFor).
		Do(ctx)
	if elastic.IsNotFound(err) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if res.Result == "noop" {
		return 0, nil
	}

	return 1, nil
}

// Update applies the non-nil fields of update and returns the modified count.
func (es *ElasticStore) Update(ctx context.Context, placeID string, update models.PlaceUpdate) (int64, error) {
	if update.IsEmpty() {
		return 0, nil
	}

	doc := map[string]any{}
	if update.Name != nil {
		doc["name"] = *update.Name
	}
	if update.Description != nil {
		doc["description"] = *update.Description
	}
	if update.Address != nil {
		doc["address"] = *update.Address
	}
	if update.ResetLocation {
		doc["coordinates"] = nil
		doc["geocode_attempts"] = 0
		doc["geocode_error"] = nil
	}

	modified, err := es.updateDoc(ctx, placeID, doc)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update place: %w", err)
	}

	return modified, nil
}

// Delete removes a place and returns the deleted count.
func (es *ElasticStore) Delete(ctx context.Context, placeID string) (int64, error) {
	_, err := es.client.Delete().Index(es.index).Id(placeID).Refresh(refreshWaitFor).Do(ctx)
	if elastic.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete place: %w", err)
	}

	return 1, nil
}

// DeleteMany removes every place matching the filter and returns the deleted count.
func (es *ElasticStore) DeleteMany(ctx context.Context, filter models.PlaceFilter) (int64, error) {
	res, err := es.client.DeleteByQuery(es.index).
		Query(elasticQuery(filter)).
		Refresh("true").
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete places: %w", err)
	}

	return res.Deleted, nil
}

// SetCoordinates stores geocoded coordinates and clears the last geocoding error.
func (es *ElasticStore) SetCoordinates(ctx context.Context, placeID string, coords models.Coordinates) error {
	doc := map[string]any{
		"coordinates":   models.NewGeoPoint(coords),
		"geocode_error": nil,
	}

	if _, err := es.updateDoc(ctx, placeID, doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update place coordinates: %w", err)
	}

	return nil
}

// RecordGeocodeFailure increments the failed lookup counter and stores the error message.
func (es *ElasticStore) RecordGeocodeFailure(ctx context.Context, placeID string, errMsg string) error {
	script := elastic.NewScript(
		"ctx._source.geocode_attempts = (ctx._source.geocode_attempts == null ? 0 : ctx._source.geocode_attempts) + 1;" +
			" ctx._source.geocode_error = params.msg",
	).Param("msg", errMsg)

	_, err := es.client.Update().
		Index(es.index).
		Id(placeID).
		Script(script).
		Refresh(refreshWaitFor).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to update geocoding error and number of attempts: %w", err)
	}

	return nil
}
