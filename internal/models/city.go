package models

// City is a row of the cities table.
type City struct {
	ID    int64  `json:"id"`    // ID is the primary key assigned by the database.
	Name  string `json:"name"`  // Name of the city.
	State string `json:"state"` // State (or province) the city belongs to.
}

// CityFilter narrows a city listing. Empty fields are ignored.
type CityFilter struct {
	Name    string // Name matches the city name exactly.
	State   string // State matches the state exactly.
	OrderBy string // OrderBy is one of "id", "name" or "state".
}
