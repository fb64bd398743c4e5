package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fakhrymubarak/weather-lookup/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var (
	ErrTransport = errors.New("weather request failed")
	ErrStatus    = errors.New("weather request returned non-success status")
	ErrDecode    = errors.New("weather response is not a weather object")
)

// weatherBody mirrors model.WeatherResponse with pointers so that missing
// fields can be told apart from zero values.
type weatherBody struct {
	Name    *string  `json:"name"`
	Celsius *float64 `json:"celsius"`
}

// weatherURL substitutes city into the path template as is. Nothing is
// escaped, so '/', '?' or '#' in city change the route the server sees.
func (h *Handler) weatherURL(city string) string {
	return h.baseURL + "/weather/" + city
}

func (h *Handler) fetch(ctx context.Context, city string) (*model.WeatherResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.weatherURL(city), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if h.checkStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	var body *weatherBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if body == nil || body.Name == nil || body.Celsius == nil {
		return nil, fmt.Errorf("%w: name and celsius are required", ErrDecode)
	}
	return &model.WeatherResponse{Name: *body.Name, Celsius: *body.Celsius}, nil
}
