package features

import (
	"errors"
	"fmt"
	"time"

	"github.com/flightontime/flight-ai-go/internal/encoder"
	"github.com/flightontime/flight-ai-go/internal/holiday"
	"github.com/flightontime/flight-ai-go/internal/ml"
)

// Feature names as persisted in the artifact. Training and serving both
// derive through this package, so the two can never drift apart.
const (
	FeatureCarrier        = "companhia"
	FeatureOrigin         = "origem"
	FeatureDestination    = "destino"
	FeatureDistanceKM     = "distancia_km"
	FeatureHour           = "hora"
	FeatureWeekday        = "dia_semana"
	FeatureMonth          = "mes"
	FeatureHoliday        = "is_holiday"
	FeaturePrecipitation  = "precipitation"
	FeatureWindSpeed      = "wind_speed"
	FeatureWeatherImputed = "clima_imputado"
)

// Names returns the canonical feature order used by new artifacts.
func Names() []string {
	return []string{
		FeatureCarrier,
		FeatureOrigin,
		FeatureDestination,
		FeatureDistanceKM,
		FeatureHour,
		FeatureWeekday,
		FeatureMonth,
		FeatureHoliday,
		FeaturePrecipitation,
		FeatureWindSpeed,
		FeatureWeatherImputed,
	}
}

// CategoricalNames returns the features carrying category values.
func CategoricalNames() []string {
	return []string{FeatureCarrier, FeatureOrigin, FeatureDestination}
}

// ErrFeatureMismatch signals that the derivable features do not line up
// with the artifact's persisted feature list: the artifact is corrupt or
// from an incompatible pipeline revision.
var ErrFeatureMismatch = errors.New("feature vector does not match artifact feature list")

// Raw holds the fully resolved inputs for one flight, after distance and
// weather resolution.
type Raw struct {
	Carrier        string
	Origin         string
	Destination    string
	DistanceKM     float64
	Departure      time.Time
	Precipitation  float64
	WindSpeed      float64
	WeatherImputed int
}

// Derive computes every named feature value for a flight.
func Derive(r Raw, cal *holiday.Calendar) map[string]ml.Value {
	return map[string]ml.Value{
		FeatureCarrier:        ml.Cat(r.Carrier),
		FeatureOrigin:         ml.Cat(r.Origin),
		FeatureDestination:    ml.Cat(r.Destination),
		FeatureDistanceKM:     ml.Num(r.DistanceKM),
		FeatureHour:           ml.Num(float64(r.Departure.Hour())),
		FeatureWeekday:        ml.Num(float64(weekdayMonday0(r.Departure))),
		FeatureMonth:          ml.Num(float64(int(r.Departure.Month()))),
		FeatureHoliday:        ml.Num(float64(cal.Flag(r.Departure))),
		FeaturePrecipitation:  ml.Num(r.Precipitation),
		FeatureWindSpeed:      ml.Num(r.WindSpeed),
		FeatureWeatherImputed: ml.Num(float64(r.WeatherImputed)),
	}
}

// weekdayMonday0 maps time.Weekday (Sunday=0) to the Monday=0 convention
// the model was trained with.
func weekdayMonday0(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Vectorize orders derived values by the persisted feature list. When
// encoders are present, categorical values are replaced by their learned
// index (sentinel for unseen values); otherwise category strings pass
// through for the native-categorical model.
func Vectorize(derived map[string]ml.Value, names []string, encoders map[string]*encoder.LabelEncoder) (ml.Sample, error) {
	if len(names) == 0 {
		return ml.Sample{}, fmt.Errorf("%w: artifact feature list is empty", ErrFeatureMismatch)
	}
	values := make([]ml.Value, len(names))
	for i, name := range names {
		v, ok := derived[name]
		if !ok {
			return ml.Sample{}, fmt.Errorf("%w: unknown feature %q", ErrFeatureMismatch, name)
		}
		if enc, ok := encoders[name]; ok && v.IsCat {
			v = ml.Num(float64(enc.Transform(v.Cat)))
		}
		values[i] = v
	}
	return ml.Sample{Names: names, Values: values}, nil
}
