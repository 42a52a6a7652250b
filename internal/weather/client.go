// Package weather fetches hour-bucketed forecasts for an airport coordinate.
// The provider is treated as unreliable: callers are expected to fall back
// to Fallback() on any error instead of failing the prediction.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flightontime/flight-ai-go/internal/config"
)

// Observation is the weather snapshot for a single departure hour.
type Observation struct {
	Precipitation float64 `json:"precipitation"`
	WindSpeed     float64 `json:"wind_speed"`
}

// Fallback returns the values used when the provider cannot answer.
func Fallback() Observation {
	return Observation{Precipitation: 0.0, WindSpeed: 5.0}
}

// DayForecast holds the hour-indexed arrays for one calendar date.
type DayForecast struct {
	Precipitation []float64 `json:"precipitation"`
	WindSpeed     []float64 `json:"wind_speed"`
}

// At selects the entry for an hour of day, erroring when the provider
// returned a shorter array (dates outside the forecast horizon).
func (d *DayForecast) At(hour int) (Observation, error) {
	if hour < 0 || hour >= len(d.Precipitation) || hour >= len(d.WindSpeed) {
		return Observation{}, fmt.Errorf("no forecast entry for hour %d", hour)
	}
	return Observation{
		Precipitation: d.Precipitation[hour],
		WindSpeed:     d.WindSpeed[hour],
	}, nil
}

// Provider yields the forecast for the departure hour at a coordinate.
type Provider interface {
	HourlyForecast(ctx context.Context, lat, lon float64, at time.Time) (Observation, error)
}

// DayFetcher yields the raw hour arrays for a whole date, the unit the
// upstream API serves and the cache stores.
type DayFetcher interface {
	DayForecast(ctx context.Context, lat, lon float64, date string) (*DayForecast, error)
}

// Client is the Open-Meteo forecast client.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
	timezone   string
}

func NewClient(cfg config.WeatherConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timezone:   cfg.Timezone,
	}
}

type forecastResponse struct {
	Hourly struct {
		Precipitation []float64 `json:"precipitation"`
		WindSpeed     []float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

// DayForecast fetches the hour arrays for one date (format 2006-01-02).
func (c *Client) DayForecast(ctx context.Context, lat, lon float64, date string) (*DayForecast, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("hourly", "precipitation,wind_speed_10m")
	params.Set("start_date", date)
	params.Set("end_date", date)
	if c.timezone != "" {
		params.Set("timezone", c.timezone)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read forecast response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("weather provider error (%d): %s", resp.StatusCode, string(body))
	}

	var decoded forecastResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal forecast response: %w", err)
	}
	if len(decoded.Hourly.Precipitation) == 0 || len(decoded.Hourly.WindSpeed) == 0 {
		return nil, fmt.Errorf("forecast response missing hourly data for %s", date)
	}
	return &DayForecast{
		Precipitation: decoded.Hourly.Precipitation,
		WindSpeed:     decoded.Hourly.WindSpeed,
	}, nil
}

// HourlyForecast fetches the day arrays and selects the departure hour.
func (c *Client) HourlyForecast(ctx context.Context, lat, lon float64, at time.Time) (Observation, error) {
	day, err := c.DayForecast(ctx, lat, lon, at.Format("2006-01-02"))
	if err != nil {
		return Observation{}, err
	}
	return day.At(at.Hour())
}
