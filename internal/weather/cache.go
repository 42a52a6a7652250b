package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flightontime/flight-ai-go/internal/database"
)

// CachedProvider caches day forecasts in Redis keyed by coordinate and
// date, so repeated predictions for the same departure day don't re-hit
// the provider. Cache failures degrade to a direct fetch.
type CachedProvider struct {
	fetcher DayFetcher
	redis   *database.RedisClient
	ttl     time.Duration
	log     *logrus.Logger
}

func NewCachedProvider(fetcher DayFetcher, redis *database.RedisClient, ttl time.Duration, log *logrus.Logger) *CachedProvider {
	return &CachedProvider{
		fetcher: fetcher,
		redis:   redis,
		ttl:     ttl,
		log:     log,
	}
}

func cacheKey(lat, lon float64, date string) string {
	return fmt.Sprintf("weather:%.4f:%.4f:%s", lat, lon, date)
}

func (p *CachedProvider) HourlyForecast(ctx context.Context, lat, lon float64, at time.Time) (Observation, error) {
	date := at.Format("2006-01-02")
	key := cacheKey(lat, lon, date)

	if cached, err := p.redis.Get(ctx, key); err == nil {
		var day DayForecast
		if err := json.Unmarshal([]byte(cached), &day); err == nil {
			return day.At(at.Hour())
		}
		p.log.WithField("key", key).Warn("Discarding undecodable weather cache entry")
	}

	day, err := p.fetcher.DayForecast(ctx, lat, lon, date)
	if err != nil {
		return Observation{}, err
	}

	if raw, err := json.Marshal(day); err == nil {
		if err := p.redis.Set(ctx, key, raw, p.ttl); err != nil {
			p.log.WithError(err).Debug("Weather cache write failed")
		}
	}
	return day.At(at.Hour())
}
