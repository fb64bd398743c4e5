package model

// WeatherResponse is the body of GET /weather/{city}. Clients rely on name and celsius;
// the remaining fields are informational.
type WeatherResponse struct {
	Name        string  `json:"name"`
	Celsius     float64 `json:"celsius"`
	Description string  `json:"description,omitempty"`
	Cached      bool    `json:"cached"`
}
