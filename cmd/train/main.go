package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/flightontime/flight-ai-go/internal/ml"
	"github.com/flightontime/flight-ai-go/internal/training"
)

func main() {
	var (
		dataPath     = flag.String("data", "data/BrFlights.csv", "path to the flights CSV")
		outPath      = flag.String("out", "artifacts/flight_classifier.json", "artifact output path")
		version      = flag.String("version", "1.0", "model version label")
		threshold    = flag.Float64("threshold", 0.35, "low decision threshold stored in the artifact")
		encode       = flag.Bool("encode", false, "encode categorical features instead of native categorical splits")
		rounds       = flag.Int("rounds", 200, "boosting rounds")
		learningRate = flag.Float64("lr", 0.1, "learning rate")
		depth        = flag.Int("depth", 6, "maximum tree depth")
		minLeaf      = flag.Int("min-leaf", 5, "minimum samples per leaf")
		testFraction = flag.Float64("test-fraction", 0.2, "hold-out fraction for evaluation")
		seed         = flag.Int64("seed", 42, "shuffle seed for the train/test split")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	res, err := training.Run(training.Config{
		DatasetPath:  *dataPath,
		ArtifactPath: *outPath,
		Version:      *version,
		Threshold:    *threshold,
		Encode:       *encode,
		TestFraction: *testFraction,
		Seed:         *seed,
		Fit: ml.FitConfig{
			Rounds:       *rounds,
			LearningRate: *learningRate,
			MaxDepth:     *depth,
			MinLeaf:      *minLeaf,
		},
	}, log)
	if err != nil {
		log.WithError(err).Error("Training failed")
		os.Exit(1)
	}

	fmt.Printf("Trained %s on %d flights (%d delayed)\n", *version, res.Rows, res.Positives)
	fmt.Printf("Hold-out (%d rows): recall %.4f, accuracy %.4f at threshold %.2f\n",
		res.TestRows, res.Recall, res.Accuracy, *threshold)
	fmt.Printf("Artifact written to %s\n", *outPath)
}
