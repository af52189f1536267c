package models

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`  // Latitude of the geographical point.
	Longitude float64 `json:"longitude"` // Longitude of the geographical point.
}

// GeoPoint is the coordinate stored with a place. Documents written by older
// clients may lack one or both components, so both are optional.
type GeoPoint struct {
	Latitude  *float64 `json:"latitude"  bson:"latitude"`
	Longitude *float64 `json:"longitude" bson:"longitude"`
}

// NewGeoPoint builds a fully populated GeoPoint from coordinates.
func NewGeoPoint(coords Coordinates) *GeoPoint {
	lat, lon := coords.Latitude, coords.Longitude
	return &GeoPoint{Latitude: &lat, Longitude: &lon}
}

// Resolve returns the coordinates if both components are present.
func (gp *GeoPoint) Resolve() (Coordinates, bool) {
	if gp == nil || gp.Latitude == nil || gp.Longitude == nil {
		return Coordinates{}, false
	}

	return Coordinates{Latitude: *gp.Latitude, Longitude: *gp.Longitude}, true
}
