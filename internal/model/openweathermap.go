package model

// OpenWeatherMapMain holds the temperature block of an OpenWeatherMap reply (metric units).
type OpenWeatherMapMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type OpenWeatherMapCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type OpenWeatherMapResponse struct {
	Name    string                    `json:"name"`
	Main    OpenWeatherMapMain        `json:"main"`
	Weather []OpenWeatherMapCondition `json:"weather"`
}

// OpenWeatherMapError is the body OpenWeatherMap sends with non-200 replies.
// cod is a number or a string depending on the endpoint, so it is left raw.
type OpenWeatherMapError struct {
	Cod     interface{} `json:"cod"`
	Message string      `json:"message"`
}

// ToWeather maps the provider payload onto the /weather/{city} contract.
func (o *OpenWeatherMapResponse) ToWeather() *WeatherResponse {
	w := &WeatherResponse{
		Name:    o.Name,
		Celsius: o.Main.Temp,
	}
	if len(o.Weather) > 0 {
		w.Description = o.Weather[0].Description
	}
	return w
}
