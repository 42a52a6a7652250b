package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightontime/flight-ai-go/internal/config"
)

func hourlyPayload() string {
	precip := make([]string, 24)
	wind := make([]string, 24)
	for h := 0; h < 24; h++ {
		precip[h] = fmt.Sprintf("%.1f", float64(h)/10.0)
		wind[h] = fmt.Sprintf("%.1f", float64(h)+1.0)
	}
	return fmt.Sprintf(`{"hourly":{"precipitation":[%s],"wind_speed_10m":[%s]}}`,
		strings.Join(precip, ","), strings.Join(wind, ","))
}

func testClient(baseURL string) *Client {
	return NewClient(config.WeatherConfig{
		BaseURL:        baseURL,
		TimeoutSeconds: 2,
		Timezone:       "America/Sao_Paulo",
	})
}

func TestHourlyForecastSelectsDepartureHour(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(hourlyPayload()))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	departure := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	obs, err := c.HourlyForecast(context.Background(), -23.4356, -46.4731, departure)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, obs.Precipitation, 1e-9)
	assert.InDelta(t, 9.0, obs.WindSpeed, 1e-9)
	assert.Contains(t, gotQuery, "start_date=2025-01-15")
	assert.Contains(t, gotQuery, "end_date=2025-01-15")
	assert.Contains(t, gotQuery, "hourly=precipitation%2Cwind_speed_10m")
}

func TestHourlyForecastProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of range", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.HourlyForecast(context.Background(), -23.4, -46.4, time.Date(2031, 1, 1, 8, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestHourlyForecastMissingHourlyBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly":{"precipitation":[],"wind_speed_10m":[]}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.HourlyForecast(context.Background(), -23.4, -46.4, time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestHourlyForecastShortArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly":{"precipitation":[0.1,0.2],"wind_speed_10m":[3,4]}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.HourlyForecast(context.Background(), -23.4, -46.4, time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestHourlyForecastTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(hourlyPayload()))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.HTTPClient.Timeout = 50 * time.Millisecond
	_, err := c.HourlyForecast(context.Background(), -23.4, -46.4, time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestFallbackValues(t *testing.T) {
	fb := Fallback()
	assert.Equal(t, 0.0, fb.Precipitation)
	assert.Equal(t, 5.0, fb.WindSpeed)
}
