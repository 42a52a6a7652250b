package prediction

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightontime/flight-ai-go/internal/artifact"
	"github.com/flightontime/flight-ai-go/internal/decision"
	"github.com/flightontime/flight-ai-go/internal/features"
	"github.com/flightontime/flight-ai-go/internal/holiday"
	"github.com/flightontime/flight-ai-go/internal/ml"
	"github.com/flightontime/flight-ai-go/internal/models"
)

type fixedClassifier struct {
	prob float64
	err  error
}

func (f *fixedClassifier) Score(s ml.Sample) (float64, error) {
	return f.prob, f.err
}

type captureRecorder struct {
	records []models.PredictionRecord
	err     error
}

func (c *captureRecorder) Record(ctx context.Context, rec models.PredictionRecord) error {
	c.records = append(c.records, rec)
	return c.err
}

func testService(clf ml.Classifier) *Service {
	art := &artifact.Artifact{
		Classifier: clf,
		Features:   features.Names(),
		Metadata:   artifact.Metadata{Version: "test", Threshold: 0.35},
	}
	pipe := &features.Pipeline{
		Coords:   map[string]models.Coordinate{},
		Calendar: holiday.NewBrazil(),
		Features: features.Names(),
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(art, pipe, decision.Policy{Low: 0.35, High: 0.70}, log)
}

func request() models.FlightRequest {
	return models.FlightRequest{
		Carrier:     "G3",
		Origin:      "GRU",
		Destination: "SDU",
		Departure:   "2025-03-11T18:30",
	}
}

func TestPredictWithoutModel(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := New(nil, nil, decision.Policy{}, log)

	assert.False(t, svc.Ready())
	_, err := svc.Predict(context.Background(), request())
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestPredictHighRisk(t *testing.T) {
	svc := testService(&fixedClassifier{prob: 0.8123456})

	res, err := svc.Predict(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, "ATRASO PROVAVEL", res.Forecast)
	assert.Equal(t, "red", res.Color)
	assert.Equal(t, "high", res.Risk)
	assert.Equal(t, 0.8123, res.Probability)
	assert.Equal(t, 800.0, res.Inputs.Distance)
	assert.Equal(t, features.SourceNoCoords, res.Inputs.WeatherSource)
	assert.Equal(t, 0, res.Inputs.Holiday)
}

func TestPredictLowRisk(t *testing.T) {
	svc := testService(&fixedClassifier{prob: 0.1})

	res, err := svc.Predict(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "PONTUAL", res.Forecast)
	assert.Equal(t, "green", res.Color)
	assert.Equal(t, "low", res.Risk)
}

func TestPredictMalformedTimestamp(t *testing.T) {
	svc := testService(&fixedClassifier{prob: 0.5})
	req := request()
	req.Departure = "yesterday"

	_, err := svc.Predict(context.Background(), req)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelUnavailable)
}

func TestPredictScoringError(t *testing.T) {
	svc := testService(&fixedClassifier{err: errors.New("bad vector")})

	_, err := svc.Predict(context.Background(), request())
	assert.Error(t, err)
}

func TestPredictRecordsHistory(t *testing.T) {
	rec := &captureRecorder{}
	svc := testService(&fixedClassifier{prob: 0.5}).WithRecorder(rec)

	_, err := svc.Predict(context.Background(), request())
	require.NoError(t, err)

	require.Len(t, rec.records, 1)
	saved := rec.records[0]
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "G3", saved.Carrier)
	assert.Equal(t, "GRU", saved.Origin)
	assert.Equal(t, "SDU", saved.Destination)
	assert.Equal(t, 0.5, saved.Probability)
	assert.Equal(t, "medium", saved.Risk)
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestPredictRecorderFailureIsNotFatal(t *testing.T) {
	rec := &captureRecorder{err: errors.New("db down")}
	svc := testService(&fixedClassifier{prob: 0.5}).WithRecorder(rec)

	res, err := svc.Predict(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "ALERTA", res.Forecast)
}

func TestModelVersion(t *testing.T) {
	svc := testService(&fixedClassifier{prob: 0.5})
	assert.Equal(t, "test", svc.ModelVersion())

	log := logrus.New()
	empty := New(nil, nil, decision.Policy{}, log)
	assert.Equal(t, "", empty.ModelVersion())
}
