package training

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightontime/flight-ai-go/internal/artifact"
	"github.com/flightontime/flight-ai-go/internal/features"
	"github.com/flightontime/flight-ai-go/internal/holiday"
	"github.com/flightontime/flight-ai-go/internal/ml"
	"github.com/flightontime/flight-ai-go/internal/models"
)

const csvHeader = "Situacao.Voo,Partida.Prevista,Partida.Real,Companhia.Aerea,Aeroporto.Origem,Aeroporto.Destino,LatOrig,LongOrig,LatDest,LongDest,precipitation,wind_speed"

func csvRow(status, carrier, origin, dest string, scheduled time.Time, delayMin int, latO, lonO, latD, lonD, precip, wind float64) string {
	actual := scheduled.Add(time.Duration(delayMin) * time.Minute)
	return fmt.Sprintf("%s,%s,%s,%s,%s,%s,%g,%g,%g,%g,%g,%g",
		status,
		scheduled.Format(time.RFC3339), actual.Format(time.RFC3339),
		carrier, origin, dest, latO, lonO, latD, lonD, precip, wind)
}

// syntheticDataset builds a separable dataset: one carrier flying rainy
// evening long hauls that always run late, another flying calm morning
// hops that leave on time.
func syntheticDataset(t *testing.T) string {
	t.Helper()
	lines := []string{csvHeader}
	for day := 1; day <= 40; day++ {
		late := time.Date(2025, 3, day%28+1, 19, 0, 0, 0, time.UTC).AddDate(0, day/28, 0)
		lines = append(lines, csvRow("Realizado", "XX", "GRU", "JFK", late, 90,
			-23.4356, -46.4731, 40.6413, -73.7781, 8.0, 25.0))

		early := time.Date(2025, 3, day%28+1, 7, 0, 0, 0, time.UTC).AddDate(0, day/28, 0)
		lines = append(lines, csvRow("Realizado", "YY", "GRU", "SDU", early, 0,
			-23.4356, -46.4731, -22.9105, -43.1631, 0.0, 4.0))
	}

	path := filepath.Join(t.TempDir(), "flights.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func fastFit() ml.FitConfig {
	return ml.FitConfig{Rounds: 30, MaxDepth: 3, MinLeaf: 2}
}

func TestLoadDatasetFilters(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	lines := []string{
		csvHeader,
		csvRow("Realizado", "XX", "GRU", "JFK", base, 30, -23.4, -46.5, 40.6, -73.8, 0, 5),
		csvRow("Cancelado", "XX", "GRU", "JFK", base.Add(time.Hour), 30, -23.4, -46.5, 40.6, -73.8, 0, 5),
		csvRow("Realizado", "XX", "GRU", "JFK", base.Add(2*time.Hour), 2000, -23.4, -46.5, 40.6, -73.8, 0, 5),
		csvRow("Realizado", "XX", "GRU", "JFK", base.Add(3*time.Hour), -120, -23.4, -46.5, 40.6, -73.8, 0, 5),
		csvRow("Realizado", "XX", "GRU", "JFK", base, 30, -23.4, -46.5, 40.6, -73.8, 0, 5), // duplicate
		"Realizado,not-a-date,also-not,XX,GRU,JFK,-23.4,-46.5,40.6,-73.8,0,5",
	}
	path := filepath.Join(t.TempDir(), "flights.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	rows, err := LoadDataset(path, quietLogger())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "XX", rows[0].Carrier)
	assert.True(t, rows[0].Delayed)
}

func TestLoadDatasetMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flights.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := LoadDataset(path, quietLogger())
	assert.ErrorContains(t, err, "missing column")
}

func TestExtractCoordinatesFirstSeen(t *testing.T) {
	rows := []Row{
		{Origin: "GRU", OriginLat: -23.4, OriginLon: -46.5, Destination: "JFK", DestLat: 40.6, DestLon: -73.8},
		{Origin: "GRU", OriginLat: 0, OriginLon: 0, Destination: "SDU", DestLat: -22.9, DestLon: -43.2},
	}
	coords := ExtractCoordinates(rows)

	assert.Equal(t, -23.4, coords["GRU"].Lat)
	assert.Equal(t, 40.6, coords["JFK"].Lat)
	assert.Equal(t, -22.9, coords["SDU"].Lat)
}

func TestRunProducesLoadableArtifact(t *testing.T) {
	artifactPath := filepath.Join(t.TempDir(), "artifacts", "model.json")
	res, err := Run(Config{
		DatasetPath:  syntheticDataset(t),
		ArtifactPath: artifactPath,
		Version:      "test-1",
		Threshold:    0.35,
		Fit:          fastFit(),
	}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, 80, res.Rows)
	assert.Equal(t, 40, res.Positives)
	assert.Greater(t, res.Recall, 0.9)

	loaded, err := artifact.Load(artifactPath)
	require.NoError(t, err)
	assert.Equal(t, "test-1", loaded.Metadata.Version)
	assert.Equal(t, 0.35, loaded.Metadata.Threshold)
	assert.Equal(t, features.Names(), loaded.Features)
	assert.Equal(t, features.CategoricalNames(), loaded.CatFeatures)
	assert.Nil(t, loaded.Encoders)
	assert.Contains(t, loaded.AirportCoords, "GRU")
	assert.Contains(t, loaded.AirportCoords, "JFK")
	assert.False(t, loaded.Metadata.TrainedAt.IsZero())
}

func TestRunEncodedVariant(t *testing.T) {
	res, err := Run(Config{
		DatasetPath: syntheticDataset(t),
		Encode:      true,
		Fit:         fastFit(),
	}, quietLogger())
	require.NoError(t, err)

	require.NotNil(t, res.Artifact.Encoders)
	assert.Nil(t, res.Artifact.CatFeatures)
	assert.Greater(t, res.Recall, 0.9)
	for _, name := range features.CategoricalNames() {
		assert.Contains(t, res.Artifact.Encoders, name)
	}
}

func TestRunSingleClassDataset(t *testing.T) {
	lines := []string{csvHeader}
	for day := 1; day <= 10; day++ {
		scheduled := time.Date(2025, 3, day, 7, 0, 0, 0, time.UTC)
		lines = append(lines, csvRow("Realizado", "YY", "GRU", "SDU", scheduled, 0,
			-23.4, -46.5, -22.9, -43.2, 0, 4))
	}
	path := filepath.Join(t.TempDir(), "flights.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	_, err := Run(Config{DatasetPath: path, Fit: fastFit()}, quietLogger())
	assert.ErrorContains(t, err, "single class")
}

// The serving pipeline must rebuild the exact vector the trainer built for
// the same flight.
func TestTrainingAndServingVectorsMatch(t *testing.T) {
	res, err := Run(Config{
		DatasetPath: syntheticDataset(t),
		Encode:      true,
		Fit:         fastFit(),
	}, quietLogger())
	require.NoError(t, err)
	art := res.Artifact

	pipe := &features.Pipeline{
		Coords:   art.AirportCoords,
		Calendar: holiday.NewBrazil(),
		Encoders: art.Encoders,
		Features: art.Features,
	}

	precip, wind := 8.0, 25.0
	req := models.FlightRequest{
		Carrier:       "XX",
		Origin:        "GRU",
		Destination:   "JFK",
		Departure:     "2025-03-02T19:00",
		Precipitation: &precip,
		WindSpeed:     &wind,
	}
	served, _, err := pipe.Build(context.Background(), req)
	require.NoError(t, err)

	scheduled := time.Date(2025, 3, 2, 19, 0, 0, 0, time.UTC)
	trained, err := features.Vectorize(features.Derive(features.Raw{
		Carrier:       "XX",
		Origin:        "GRU",
		Destination:   "JFK",
		DistanceKM:    features.Haversine(-23.4356, -46.4731, 40.6413, -73.7781),
		Departure:     scheduled,
		Precipitation: 8.0,
		WindSpeed:     25.0,
	}, holiday.NewBrazil()), art.Features, art.Encoders)
	require.NoError(t, err)

	require.Equal(t, len(trained.Values), len(served.Values))
	for i := range trained.Values {
		assert.Equal(t, trained.Values[i], served.Values[i], "feature %s", trained.Names[i])
	}

	servedScore, err := art.Classifier.Score(served)
	require.NoError(t, err)
	trainedScore, err := art.Classifier.Score(trained)
	require.NoError(t, err)
	assert.InDelta(t, trainedScore, servedScore, 1e-12)
}
