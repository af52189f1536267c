package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/geo"
	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/placestore"
	"github.com/UnknownOlympus/waypoint/internal/repository"
)

// PlaceService registers cities and places and answers lookups over them.
type PlaceService struct {
	log               *slog.Logger
	cities            repository.Interface
	places            placestore.Store
	geocoder          geocoding.Provider // optional
	metrics           *metrics.Metrics
	parallelThreshold int // candidate count above which the filter runs in parallel, 0 disables
	workers           int
}

// NewPlaceService creates a PlaceService. geocoder may be nil, in which case
// places must be registered with coordinates or are left for later geocoding.
func NewPlaceService(
	log *slog.Logger,
	cities repository.Interface,
	places placestore.Store,
	geocoder geocoding.Provider,
	metrics *metrics.Metrics,
	parallelThreshold int,
	workers int,
) *PlaceService {
	return &PlaceService{
		log:               log,
		cities:            cities,
		places:            places,
		geocoder:          geocoder,
		metrics:           metrics,
		parallelThreshold: parallelThreshold,
		workers:           workers,
	}
}

// RegisterCity validates and stores a new city.
func (ps *PlaceService) RegisterCity(ctx context.Context, name, state string) (models.City, error) {
	city := models.City{Name: strings.TrimSpace(name), State: strings.TrimSpace(state)}
	if city.Name == "" || city.State == "" {
		return models.City{}, fmt.Errorf("%w: city name and state are required", ErrInvalidInput)
	}

	cityID, err := ps.cities.InsertCity(ctx, city)
	if err != nil {
		return models.City{}, err
	}
	city.ID = cityID

	ps.log.InfoContext(ctx, "City registered", "id", city.ID, "name", city.Name, "state", city.State)

	return city, nil
}

// ListCities returns the cities matching the filter.
func (ps *PlaceService) ListCities(ctx context.Context, filter models.CityFilter) ([]models.City, error) {
	cities, err := ps.cities.FetchCities(ctx, filter)
	if errors.Is(err, repository.ErrInvalidOrder) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return cities, err
}

// GetCity returns a single city.
func (ps *PlaceService) GetCity(ctx context.Context, cityID int64) (*models.City, error) {
	city, err := ps.cities.GetCity(ctx, cityID)
	if errors.Is(err, repository.ErrCityNotFound) {
		return nil, fmt.Errorf("%w: city %d", ErrNotFound, cityID)
	}

	return city, err
}

// UpdateCity renames a city.
func (ps *PlaceService) UpdateCity(ctx context.Context, cityID int64, name, state string) error {
	city := models.City{Name: strings.TrimSpace(name), State: strings.TrimSpace(state)}
	if city.Name == "" || city.State == "" {
		return fmt.Errorf("%w: city name and state are required", ErrInvalidInput)
	}

	rows, err := ps.cities.UpdateCity(ctx, cityID, city)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: city %d", ErrNotFound, cityID)
	}

	return nil
}

// DeleteCity removes a city. Places referencing it by name are kept.
func (ps *PlaceService) DeleteCity(ctx context.Context, cityID int64) error {
	rows, err := ps.cities.DeleteCity(ctx, cityID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: city %d", ErrNotFound, cityID)
	}

	return nil
}

func validCoordinates(coords models.Coordinates) bool {
	return coords.Latitude >= -90 && coords.Latitude <= 90 &&
		coords.Longitude >= -180 && coords.Longitude <= 180
}

// RegisterPlace validates and stores a new place.
//
// The city must already be registered. A place needs either coordinates or an
// address; address-only places are geocoded right away when a provider is
// configured, and a failed lookup is recorded for the backfill worker.
func (ps *PlaceService) RegisterPlace(ctx context.Context, input models.PlaceInput) (models.Place, error) {
	place := models.Place{
		Name:        strings.TrimSpace(input.Name),
		City:        strings.TrimSpace(input.City),
		Description: strings.TrimSpace(input.Description),
		Address:     strings.TrimSpace(input.Address),
		Extra:       input.Extra,
	}

	if err := ps.validatePlace(place, input.Coordinates); err != nil {
		ps.metrics.PlacesRegistered.WithLabelValues("rejected").Inc()
		return models.Place{}, err
	}

	cities, err := ps.cities.FetchCities(ctx, models.CityFilter{Name: place.City})
	if err != nil {
		ps.metrics.PlacesRegistered.WithLabelValues("failure").Inc()
		return models.Place{}, err
	}
	if len(cities) == 0 {
		ps.metrics.PlacesRegistered.WithLabelValues("rejected").Inc()
		return models.Place{}, fmt.Errorf("%w: %s", ErrUnknownCity, place.City)
	}

	switch {
	case input.Coordinates != nil:
		place.Coordinates = models.NewGeoPoint(*input.Coordinates)
	case ps.geocoder != nil:
		ps.geocodeInline(ctx, &place)
	}

	placeID, err := ps.places.Insert(ctx, place)
	if err != nil {
		ps.metrics.PlacesRegistered.WithLabelValues("failure").Inc()
		return models.Place{}, err
	}
	place.ID = placeID

	ps.metrics.PlacesRegistered.WithLabelValues("success").Inc()
	ps.log.InfoContext(ctx, "Place registered", "id", place.ID, "name", place.Name, "city", place.City)

	return place, nil
}

func (ps *PlaceService) validatePlace(place models.Place, coords *models.Coordinates) error {
	if place.Name == "" || place.City == "" || place.Description == "" {
		return fmt.Errorf("%w: name, city and description are required", ErrInvalidInput)
	}
	if coords == nil && place.Address == "" {
		return fmt.Errorf("%w: coordinates or address are required", ErrInvalidInput)
	}
	if coords != nil && !validCoordinates(*coords) {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	if key, reserved := models.ReservedExtraKey(place.Extra); reserved {
		return fmt.Errorf("%w: extra field %q is reserved", ErrInvalidInput, key)
	}

	return nil
}

func (ps *PlaceService) geocodeInline(ctx context.Context, place *models.Place) {
	coords, err := ps.geocoder.Geocode(ctx, place.Address)
	if err != nil {
		ps.log.WarnContext(ctx, "Geocoding failed, leaving place for backfill",
			"address", place.Address, "error", err)
		place.GeocodeAttempts = 1
		place.GeocodeError = err.Error()
		return
	}

	place.Coordinates = models.NewGeoPoint(*coords)
}

// PlacesByCity lists the places registered in a city.
func (ps *PlaceService) PlacesByCity(ctx context.Context, city string) ([]models.Place, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("%w: city is required", ErrInvalidInput)
	}

	return ps.places.Find(ctx, models.PlaceFilter{City: city})
}

// GetPlace returns a single place.
func (ps *PlaceService) GetPlace(ctx context.Context, placeID string) (*models.Place, error) {
	place, err := ps.places.Get(ctx, placeID)
	if errors.Is(err, placestore.ErrNotFound) {
		return nil, fmt.Errorf("%w: place %s", ErrNotFound, placeID)
	}

	return place, err
}

// UpdatePlace changes the editable fields of a place. A new address drops
// the stored coordinates so the backfill geocodes the place again.
func (ps *PlaceService) UpdatePlace(ctx context.Context, placeID string, update models.PlaceUpdate) error {
	if update.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if update.Address != nil {
		address := strings.TrimSpace(*update.Address)
		if address == "" {
			return fmt.Errorf("%w: address cannot be empty", ErrInvalidInput)
		}
		update.Address = &address
	}

	existing, err := ps.GetPlace(ctx, placeID)
	if err != nil {
		return err
	}
	update.ResetLocation = update.Address != nil && *update.Address != existing.Address

	_, err = ps.places.Update(ctx, placeID, update)

	return err
}

// DeletePlace removes a place.
func (ps *PlaceService) DeletePlace(ctx context.Context, placeID string) error {
	deleted, err := ps.places.Delete(ctx, placeID)
	if errors.Is(err, placestore.ErrNotFound) || (err == nil && deleted == 0) {
		return fmt.Errorf("%w: place %s", ErrNotFound, placeID)
	}

	return err
}

// Nearby returns the places within query.RadiusKm of the reference point.
// Results keep store order unless SortByDistance is set. An empty result with
// a nil error means nothing matched.
func (ps *PlaceService) Nearby(ctx context.Context, query models.NearbyQuery) ([]models.ProximityResult, error) {
	start := time.Now()
	defer func() { ps.metrics.NearbySeconds.Observe(time.Since(start).Seconds()) }()

	for _, v := range []float64{query.Reference.Latitude, query.Reference.Longitude, query.RadiusKm} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			ps.metrics.NearbyQueries.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("%w: reference and radius must be finite", ErrInvalidInput)
		}
	}

	candidates, err := ps.places.Find(ctx, models.PlaceFilter{})
	if err != nil {
		ps.metrics.NearbyQueries.WithLabelValues("failure").Inc()
		return nil, err
	}

	var results []models.ProximityResult
	if ps.parallelThreshold > 0 && len(candidates) > ps.parallelThreshold {
		results, err = geo.FilterWithinRadiusParallel(ctx, query.Reference, query.RadiusKm, candidates, ps.workers)
		if err != nil {
			ps.metrics.NearbyQueries.WithLabelValues("failure").Inc()
			return nil, err
		}
	} else {
		results = geo.FilterWithinRadius(query.Reference, query.RadiusKm, candidates)
	}

	if query.SortByDistance {
		geo.SortByDistance(results)
	}

	ps.metrics.NearbyQueries.WithLabelValues("success").Inc()
	ps.metrics.NearbyMatches.Observe(float64(len(results)))
	ps.log.DebugContext(ctx, "Proximity query finished",
		"lat", query.Reference.Latitude,
		"lon", query.Reference.Longitude,
		"radius_km", query.RadiusKm,
		"candidates", len(candidates),
		"matches", len(results))

	return results, nil
}
