package features

import (
	"context"
	"time"

	"github.com/flightontime/flight-ai-go/internal/encoder"
	"github.com/flightontime/flight-ai-go/internal/holiday"
	"github.com/flightontime/flight-ai-go/internal/ml"
	"github.com/flightontime/flight-ai-go/internal/models"
	"github.com/flightontime/flight-ai-go/internal/weather"
)

// Weather source indicators returned to callers so live data can be told
// apart from fallbacks.
const (
	SourceLive     = "live"
	SourceManual   = "manual"
	SourceFallback = "fallback"
	SourceNoCoords = "no_coords"
)

// Pipeline derives the model feature vector for an inference request. All
// fields are set once at startup and read-only afterwards; the pipeline is
// safe for concurrent requests.
type Pipeline struct {
	Coords   map[string]models.Coordinate
	Calendar *holiday.Calendar
	Weather  weather.Provider
	Encoders map[string]*encoder.LabelEncoder
	Features []string
}

// Resolved echoes the side-lookup results that went into the vector.
type Resolved struct {
	DistanceKM    float64
	Precipitation float64
	WindSpeed     float64
	WeatherSource string
	Holiday       int
}

// Build validates the request, resolves distance and weather, and returns
// the ordered feature vector. Unknown airports and provider failures
// resolve to documented fallbacks; only a malformed timestamp or an
// artifact/pipeline mismatch is an error.
func (p *Pipeline) Build(ctx context.Context, req models.FlightRequest) (ml.Sample, Resolved, error) {
	dep, err := req.ParseDeparture()
	if err != nil {
		return ml.Sample{}, Resolved{}, err
	}

	originCoord, originKnown := p.Coords[req.Origin]

	dist := p.resolveDistance(req, originCoord, originKnown)
	obs, source := p.resolveWeather(ctx, req, originCoord, originKnown, dep)

	raw := Raw{
		Carrier:       req.Carrier,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DistanceKM:    dist,
		Departure:     dep,
		Precipitation: obs.Precipitation,
		WindSpeed:     obs.WindSpeed,
	}
	derived := Derive(raw, p.Calendar)

	sample, err := Vectorize(derived, p.Features, p.Encoders)
	if err != nil {
		return ml.Sample{}, Resolved{}, err
	}
	return sample, Resolved{
		DistanceKM:    dist,
		Precipitation: obs.Precipitation,
		WindSpeed:     obs.WindSpeed,
		WeatherSource: source,
		Holiday:       p.Calendar.Flag(dep),
	}, nil
}

func (p *Pipeline) resolveDistance(req models.FlightRequest, originCoord models.Coordinate, originKnown bool) float64 {
	if req.DistanceKM != nil && *req.DistanceKM > 0 {
		return *req.DistanceKM
	}
	destCoord, destKnown := p.Coords[req.Destination]
	if originKnown && destKnown {
		return Haversine(originCoord.Lat, originCoord.Lon, destCoord.Lat, destCoord.Lon)
	}
	return DefaultDistanceKM
}

func (p *Pipeline) resolveWeather(ctx context.Context, req models.FlightRequest, originCoord models.Coordinate, originKnown bool, dep time.Time) (weather.Observation, string) {
	if req.Precipitation == nil && req.WindSpeed == nil {
		if originKnown && p.Weather != nil {
			if obs, err := p.Weather.HourlyForecast(ctx, originCoord.Lat, originCoord.Lon, dep); err == nil {
				return obs, SourceLive
			}
			return weather.Fallback(), SourceFallback
		}
		return weather.Fallback(), SourceNoCoords
	}

	// When only one of the two values is supplied, the missing one takes
	// the fallback default instead of triggering a live fetch. See
	// DESIGN.md for why this asymmetry is kept.
	obs := weather.Fallback()
	obs.Precipitation = 0.0
	if req.Precipitation != nil {
		obs.Precipitation = *req.Precipitation
	}
	if req.WindSpeed != nil {
		obs.WindSpeed = *req.WindSpeed
	}
	return obs, SourceManual
}
