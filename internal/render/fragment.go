package render

import (
	"bytes"
	"html/template"

	"github.com/fakhrymubarak/weather-lookup/internal/model"
)

// FailureFragment replaces the output region whenever a lookup fails, whatever the cause.
const FailureFragment = `<p style="color: red;">Error fetching weather data. Please try again.</p>`

var successTemplate = template.Must(template.New("weather").Parse(
	"<h2>Weather in {{.Name}}</h2>\n<p>Temperature: {{.Temperature}}°C</p>"))

// Success renders the result fragment for w. The location name is HTML escaped
// and the temperature is shown with two decimals.
func Success(w *model.WeatherResponse) (string, error) {
	var buf bytes.Buffer
	err := successTemplate.Execute(&buf, struct {
		Name        string
		Temperature string
	}{
		Name:        w.Name,
		Temperature: ToFixed(w.Celsius, 2),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
