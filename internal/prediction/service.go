// Package prediction orchestrates a single inference: feature derivation,
// model scoring, risk tiering, and optional history recording.
package prediction

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flightontime/flight-ai-go/internal/artifact"
	"github.com/flightontime/flight-ai-go/internal/decision"
	"github.com/flightontime/flight-ai-go/internal/features"
	"github.com/flightontime/flight-ai-go/internal/models"
)

// ErrModelUnavailable is returned while no artifact is loaded. The server
// starts and serves health checks in that state, but cannot predict.
var ErrModelUnavailable = errors.New("model artifact is not loaded")

// Recorder persists successful predictions. Recording is best effort: a
// failing recorder never fails the request.
type Recorder interface {
	Record(ctx context.Context, rec models.PredictionRecord) error
}

// Service holds everything needed to answer predict requests. All fields
// are set at startup; the service is safe for concurrent use.
type Service struct {
	artifact *artifact.Artifact
	pipeline *features.Pipeline
	policy   decision.Policy
	recorder Recorder
	log      *logrus.Logger
}

// New wires a prediction service. artifact may be nil when loading failed
// at startup; the service then reports not ready instead of crashing.
func New(art *artifact.Artifact, pipe *features.Pipeline, policy decision.Policy, log *logrus.Logger) *Service {
	return &Service{
		artifact: art,
		pipeline: pipe,
		policy:   policy,
		log:      log,
	}
}

// WithRecorder attaches an optional prediction history store.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// Ready reports whether a model is loaded and predictions can be served.
func (s *Service) Ready() bool {
	return s.artifact != nil && s.artifact.Classifier != nil
}

// ModelVersion returns the version label of the loaded artifact, or empty
// when no model is loaded.
func (s *Service) ModelVersion() string {
	if s.artifact == nil {
		return ""
	}
	return s.artifact.Metadata.Version
}

// Predict runs the full inference path for one flight.
func (s *Service) Predict(ctx context.Context, req models.FlightRequest) (models.PredictionResult, error) {
	if !s.Ready() {
		return models.PredictionResult{}, ErrModelUnavailable
	}

	sample, resolved, err := s.pipeline.Build(ctx, req)
	if err != nil {
		return models.PredictionResult{}, err
	}

	prob, err := s.artifact.Classifier.Score(sample)
	if err != nil {
		return models.PredictionResult{}, err
	}

	verdict := s.policy.Evaluate(prob)

	result := models.PredictionResult{
		Forecast:    verdict.Forecast,
		Probability: round(prob, 4),
		Color:       verdict.Color,
		Risk:        verdict.Tier.String(),
		Inputs: models.UsedInputs{
			Distance:      round(resolved.DistanceKM, 1),
			Precipitation: resolved.Precipitation,
			WindSpeed:     resolved.WindSpeed,
			WeatherSource: resolved.WeatherSource,
			Holiday:       resolved.Holiday,
		},
	}

	s.record(ctx, req, resolved, prob, verdict)
	return result, nil
}

func (s *Service) record(ctx context.Context, req models.FlightRequest, resolved features.Resolved, prob float64, verdict decision.Verdict) {
	if s.recorder == nil {
		return
	}
	dep, err := req.ParseDeparture()
	if err != nil {
		return
	}
	rec := models.PredictionRecord{
		ID:          uuid.New().String(),
		Carrier:     req.Carrier,
		Origin:      req.Origin,
		Destination: req.Destination,
		Departure:   dep,
		Probability: prob,
		Risk:        verdict.Tier.String(),
		DistanceKM:  resolved.DistanceKM,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.log.WithError(err).Warn("Failed to record prediction")
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
