package integrationtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"github.com/fakhrymubarak/weather-lookup/internal/model"
	"github.com/fakhrymubarak/weather-lookup/internal/redis"
	"github.com/fakhrymubarak/weather-lookup/internal/render"
	"github.com/fakhrymubarak/weather-lookup/internal/widget"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type WeatherAPITestSuite struct {
	suite.Suite
	httpServer *httptest.Server
	owmServer  *httptest.Server
	miniRedis  *miniredis.Miniredis
}

func (suite *WeatherAPITestSuite) SetupSuite() {
	suite.miniRedis = miniredis.NewMiniRedis()
	require.NoError(suite.T(), suite.miniRedis.Start())

	suite.owmServer = mockOWMApi()
	os.Setenv("OPENWEATHERMAP_API_KEY", testAPIKey)
	viper.Set("redis.addr", suite.miniRedis.Addr())
	viper.Set("openweathermap.api_url", suite.owmServer.URL)
	config.ReloadConfigForTest()
	redis.ResetClientForTest()

	suite.httpServer = setupIntegrationTestServer()
}

func (suite *WeatherAPITestSuite) TearDownSuite() {
	suite.httpServer.Close()
	suite.owmServer.Close()
	redis.ResetClientForTest()
	suite.miniRedis.Close()
	os.Unsetenv("OPENWEATHERMAP_API_KEY")
}

func (suite *WeatherAPITestSuite) SetupTest() {
	suite.miniRedis.FlushAll()
	os.Setenv("OPENWEATHERMAP_API_KEY", testAPIKey)
}

func TestWeatherAPITestSuite(t *testing.T) {
	suite.Run(t, new(WeatherAPITestSuite))
}

func (suite *WeatherAPITestSuite) TestWeatherEndpoint() {
	tests := []struct {
		name          string
		setupMockTest func()
		path          string
		wantStatus    int
		validate      func(t *testing.T, resp *http.Response)
	}{
		{
			name:       "Failed - Blank city",
			path:       "/weather/%20",
			wantStatus: http.StatusBadRequest,
			validate: func(t *testing.T, resp *http.Response) {
				body, _ := io.ReadAll(resp.Body)
				assert.Contains(t, string(body), "Missing city in path")
			},
		},
		{
			name:       "Failed - Unknown city",
			path:       "/weather/InvalidCity12345",
			wantStatus: http.StatusNotFound,
			validate: func(t *testing.T, resp *http.Response) {
				body, _ := io.ReadAll(resp.Body)
				assert.Contains(t, string(body), "City not found")
			},
		},
		{
			name: "Failed - Invalid API key",
			setupMockTest: func() {
				os.Setenv("OPENWEATHERMAP_API_KEY", "invalid_key")
			},
			path:       "/weather/London",
			wantStatus: http.StatusInternalServerError,
			validate: func(t *testing.T, resp *http.Response) {
				body, _ := io.ReadAll(resp.Body)
				assert.Contains(t, string(body), "Failed to fetch weather data")
			},
		},
		{
			name: "Success - Valid city (cached)",
			setupMockTest: func() {
				data, _ := json.Marshal(&model.WeatherResponse{Name: "London", Celsius: 11.1})
				require.NoError(suite.T(), suite.miniRedis.Set("weather:london", string(data)))
				suite.miniRedis.SetTTL("weather:london", time.Minute)
			},
			path:       "/weather/London",
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, resp *http.Response) {
				var weather model.WeatherResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&weather))
				assert.Equal(t, "London", weather.Name)
				assert.Equal(t, 11.1, weather.Celsius)
				assert.True(t, weather.Cached)
			},
		},
		{
			name:       "Success - Valid city (not cached)",
			path:       "/weather/London",
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, resp *http.Response) {
				var weather model.WeatherResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&weather))
				assert.Equal(t, "London", weather.Name)
				assert.Equal(t, 15.2, weather.Celsius)
				assert.Equal(t, "clear sky", weather.Description)
				assert.False(t, weather.Cached)
				assert.True(t, suite.miniRedis.Exists("weather:london"))
			},
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.miniRedis.FlushAll()
			os.Setenv("OPENWEATHERMAP_API_KEY", testAPIKey)
			if tt.setupMockTest != nil {
				tt.setupMockTest()
			}

			resp, err := suite.httpServer.Client().Get(suite.httpServer.URL + tt.path)
			require.NoError(suite.T(), err)
			defer resp.Body.Close()

			assert.Equal(suite.T(), tt.wantStatus, resp.StatusCode)
			if tt.validate != nil {
				tt.validate(suite.T(), resp)
			}
		})
	}
}

func (suite *WeatherAPITestSuite) TestHealth() {
	resp, err := suite.httpServer.Client().Get(suite.httpServer.URL + "/health")
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(suite.T(), "ok", body["status"])
}

func (suite *WeatherAPITestSuite) newWidget() (*widget.Field, *widget.Region, *[]string, *widget.Handler) {
	field := &widget.Field{}
	region := &widget.Region{}
	var alerts []string
	h := widget.New(field, region, widget.NotifierFunc(func(m string) { alerts = append(alerts, m) }),
		widget.WithBaseURL(suite.httpServer.URL),
		widget.WithHTTPClient(suite.httpServer.Client()),
	)
	return field, region, &alerts, h
}

func (suite *WeatherAPITestSuite) TestWidgetRendersLookup() {
	field, region, alerts, h := suite.newWidget()

	field.Set("London")
	h.Handle().Wait()

	assert.Equal(suite.T(), "<h2>Weather in London</h2>\n<p>Temperature: 15.20°C</p>", region.HTML())
	assert.Empty(suite.T(), *alerts)
}

func (suite *WeatherAPITestSuite) TestWidgetRendersFailureForUnknownCity() {
	field, region, _, h := suite.newWidget()

	field.Set("Atlantis")
	inv := h.Handle()
	inv.Wait()

	assert.Equal(suite.T(), render.FailureFragment, region.HTML())
	assert.ErrorIs(suite.T(), inv.Err(), widget.ErrStatus)
}

func (suite *WeatherAPITestSuite) TestWidgetRejectsEmptyInput() {
	_, region, alerts, h := suite.newWidget()

	inv := h.Handle()

	assert.Equal(suite.T(), widget.Rejected, inv.State())
	assert.Equal(suite.T(), []string{widget.EmptyInputMessage}, *alerts)
	assert.Empty(suite.T(), region.HTML())
}
