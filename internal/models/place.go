package models

import (
	"maps"
	"slices"
)

// Place is a point of interest kept in the document store.
//
// Coordinates is optional: a place registered by address only gets it once
// geocoding succeeds. Fields the application does not know about are kept
// in Extra; stores write them as top-level document fields, so their keys may
// not reuse a stored field name (see IsReservedField).
type Place struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	City            string         `json:"city"`
	Description     string         `json:"description"`
	Address         string         `json:"address,omitempty"`
	Coordinates     *GeoPoint      `json:"coordinates,omitempty"`
	GeocodeAttempts int            `json:"geocode_attempts,omitempty"`
	GeocodeError    string         `json:"geocode_error,omitempty"`
	Extra           map[string]any `json:"extra,omitempty"`
}

// PlaceFilter narrows a place lookup. The zero value matches every place.
type PlaceFilter struct {
	City string // City matches the city name exactly.
	// MissingCoordinates selects places that have an address, no coordinates
	// and fewer than MaxGeocodeAttempts failed lookups.
	MissingCoordinates bool
	Limit              int64 // Limit caps the number of returned places, 0 means no limit.
}

// PlaceUpdate holds the editable fields of a place. Nil fields are left as is.
type PlaceUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Address     *string `json:"address,omitempty"`
	// ResetLocation drops the stored coordinates and geocoding bookkeeping,
	// so the backfill geocodes the new address.
	ResetLocation bool `json:"-"`
}

// IsEmpty reports whether the update changes nothing.
func (pu PlaceUpdate) IsEmpty() bool {
	return pu.Name == nil && pu.Description == nil && pu.Address == nil
}

// reservedFields are the stored names of the fields of a place.
var reservedFields = map[string]struct{}{
	"_id":              {},
	"id":               {},
	"name":             {},
	"city":             {},
	"description":      {},
	"address":          {},
	"coordinates":      {},
	"geocode_attempts": {},
	"geocode_error":    {},
	"extra":            {},
}

// IsReservedField reports whether key names a stored place field.
func IsReservedField(key string) bool {
	_, ok := reservedFields[key]
	return ok
}

// ReservedExtraKey returns the first key of extra, in sorted order, that
// collides with a stored place field.
func ReservedExtraKey(extra map[string]any) (string, bool) {
	for _, key := range slices.Sorted(maps.Keys(extra)) {
		if IsReservedField(key) {
			return key, true
		}
	}

	return "", false
}

// MaxGeocodeAttempts is the number of failed lookups after which a place is
// no longer picked up by the geocoding backfill.
const MaxGeocodeAttempts = 5

// ProximityResult is a place found near a reference point.
type ProximityResult struct {
	Place

	DistanceKm float64 `json:"distance_km"` // Distance from the reference point, 2 decimals.
}

// PlaceInput is a place registration request.
type PlaceInput struct {
	Name        string         `json:"name"`
	City        string         `json:"city"`
	Description string         `json:"description"`
	Address     string         `json:"address,omitempty"`
	Coordinates *Coordinates   `json:"coordinates,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// NearbyQuery describes a proximity search.
type NearbyQuery struct {
	Reference      Coordinates
	RadiusKm       float64
	SortByDistance bool
}
