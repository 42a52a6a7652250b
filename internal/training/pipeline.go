package training

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flightontime/flight-ai-go/internal/artifact"
	"github.com/flightontime/flight-ai-go/internal/encoder"
	"github.com/flightontime/flight-ai-go/internal/features"
	"github.com/flightontime/flight-ai-go/internal/holiday"
	"github.com/flightontime/flight-ai-go/internal/ml"
)

// Config controls one training run.
type Config struct {
	DatasetPath  string
	ArtifactPath string
	Version      string
	Threshold    float64
	Encode       bool
	TestFraction float64
	Seed         int64
	Fit          ml.FitConfig
}

func (c Config) withDefaults() Config {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Threshold <= 0 {
		c.Threshold = 0.35
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		c.TestFraction = 0.2
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	return c
}

// Result summarizes a training run. Recall and accuracy are measured on the
// hold-out split at the artifact threshold.
type Result struct {
	Rows      int
	Positives int
	TestRows  int
	Recall    float64
	Accuracy  float64
	Artifact  *artifact.Artifact
}

// Run executes the full training pipeline: load, filter, derive, split,
// fit, evaluate, persist.
func Run(cfg Config, log *logrus.Logger) (*Result, error) {
	cfg = cfg.withDefaults()

	rows, err := LoadDataset(cfg.DatasetPath, log)
	if err != nil {
		return nil, err
	}
	coords := ExtractCoordinates(rows)
	cal := holiday.NewBrazil()

	derived := make([]map[string]ml.Value, len(rows))
	labels := make([]int, len(rows))
	positives := 0
	for i, r := range rows {
		derived[i] = features.Derive(features.Raw{
			Carrier:        r.Carrier,
			Origin:         r.Origin,
			Destination:    r.Destination,
			DistanceKM:     features.Haversine(r.OriginLat, r.OriginLon, r.DestLat, r.DestLon),
			Departure:      r.Scheduled,
			Precipitation:  r.Precipitation,
			WindSpeed:      r.WindSpeed,
			WeatherImputed: r.Imputed,
		}, cal)
		if r.Delayed {
			labels[i] = 1
			positives++
		}
	}
	if positives == 0 || positives == len(rows) {
		return nil, fmt.Errorf("dataset has a single class: %d positives out of %d rows", positives, len(rows))
	}

	trainIdx, testIdx := splitIndexes(len(rows), cfg.TestFraction, cfg.Seed)

	var encoders map[string]*encoder.LabelEncoder
	if cfg.Encode {
		encoders = fitEncoders(rows, trainIdx)
	}

	names := features.Names()
	samples := make([]ml.Sample, len(rows))
	for i := range rows {
		samples[i], err = features.Vectorize(derived[i], names, encoders)
		if err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"train":     len(trainIdx),
		"test":      len(testIdx),
		"positives": positives,
		"encoded":   cfg.Encode,
	}).Info("Fitting model")

	trainSamples := make([]ml.Sample, len(trainIdx))
	trainLabels := make([]int, len(trainIdx))
	for k, i := range trainIdx {
		trainSamples[k] = samples[i]
		trainLabels[k] = labels[i]
	}
	cfg.Fit.Balanced = true
	model, err := ml.Fit(trainSamples, trainLabels, cfg.Fit)
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	recall, accuracy, err := evaluate(model, samples, labels, testIdx, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"recall":   fmt.Sprintf("%.4f", recall),
		"accuracy": fmt.Sprintf("%.4f", accuracy),
	}).Info("Hold-out evaluation done")

	var catFeatures []string
	if !cfg.Encode {
		catFeatures = features.CategoricalNames()
	}
	art := &artifact.Artifact{
		Classifier:    model,
		Features:      names,
		CatFeatures:   catFeatures,
		Encoders:      encoders,
		AirportCoords: coords,
		Metadata: artifact.Metadata{
			Version:   cfg.Version,
			Threshold: cfg.Threshold,
			Recall:    recall,
			TrainedAt: time.Now().UTC(),
		},
	}
	if cfg.ArtifactPath != "" {
		if err := artifact.Save(cfg.ArtifactPath, art); err != nil {
			return nil, err
		}
		log.WithField("path", cfg.ArtifactPath).Info("Artifact saved")
	}

	return &Result{
		Rows:      len(rows),
		Positives: positives,
		TestRows:  len(testIdx),
		Recall:    recall,
		Accuracy:  accuracy,
		Artifact:  art,
	}, nil
}

// splitIndexes shuffles deterministically and carves off the hold-out set.
func splitIndexes(n int, testFraction float64, seed int64) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	cut := int(float64(n) * testFraction)
	if cut < 1 {
		cut = 1
	}
	return idx[cut:], idx[:cut]
}

// fitEncoders learns the categorical encoders from the training split only,
// so hold-out evaluation sees unseen categories the way production will.
func fitEncoders(rows []Row, trainIdx []int) map[string]*encoder.LabelEncoder {
	carriers := make([]string, 0, len(trainIdx))
	origins := make([]string, 0, len(trainIdx))
	destinations := make([]string, 0, len(trainIdx))
	for _, i := range trainIdx {
		carriers = append(carriers, rows[i].Carrier)
		origins = append(origins, rows[i].Origin)
		destinations = append(destinations, rows[i].Destination)
	}
	return map[string]*encoder.LabelEncoder{
		features.FeatureCarrier:     encoder.Fit(carriers),
		features.FeatureOrigin:      encoder.Fit(origins),
		features.FeatureDestination: encoder.Fit(destinations),
	}
}

func evaluate(model ml.Classifier, samples []ml.Sample, labels []int, testIdx []int, threshold float64) (recall, accuracy float64, err error) {
	var tp, fn, correct int
	for _, i := range testIdx {
		prob, err := model.Score(samples[i])
		if err != nil {
			return 0, 0, fmt.Errorf("failed to score hold-out sample: %w", err)
		}
		predicted := 0
		if prob >= threshold {
			predicted = 1
		}
		if predicted == labels[i] {
			correct++
		}
		if labels[i] == 1 {
			if predicted == 1 {
				tp++
			} else {
				fn++
			}
		}
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if len(testIdx) > 0 {
		accuracy = float64(correct) / float64(len(testIdx))
	}
	return recall, accuracy, nil
}
