package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider geocodes addresses with the Google Maps Geocoding API.
type GoogleProvider struct {
	client   GoogleAPIClient // client is the Google Maps API client
	language string          // language of the returned results
	log      *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider wraps an existing Google Maps client.
func NewGoogleProvider(client GoogleAPIClient, language string, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, language: language, log: log}
}

// Geocode returns the location of the best match for the address.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	req := maps.GeocodingRequest{Address: address, Language: gp.language}
	results, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}
	location := results[0].Geometry.Location

	return &models.Coordinates{Latitude: location.Lat, Longitude: location.Lng}, nil
}
