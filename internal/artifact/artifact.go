// Package artifact reads and writes the serialized training bundle: the
// single file connecting the training run to the serving process. The
// bundle is loaded once at startup and never mutated afterwards.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flightontime/flight-ai-go/internal/encoder"
	"github.com/flightontime/flight-ai-go/internal/ml"
	"github.com/flightontime/flight-ai-go/internal/models"
)

// Metadata travels with the model: the tuned decision threshold, a version
// label, and the hold-out recall measured at training time.
type Metadata struct {
	Version   string    `json:"version"`
	Threshold float64   `json:"threshold"`
	Recall    float64   `json:"recall,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

// Artifact is the loaded bundle. Encoders are nil for native-categorical
// models; AirportCoords may be empty for artifacts predating the
// coordinate table.
type Artifact struct {
	Classifier    ml.Classifier
	Features      []string
	CatFeatures   []string
	Encoders      map[string]*encoder.LabelEncoder
	AirportCoords map[string]models.Coordinate
	Metadata      Metadata
}

type bundle struct {
	Model         json.RawMessage                  `json:"model"`
	Features      []string                         `json:"features"`
	CatFeatures   []string                         `json:"cat_features,omitempty"`
	Encoders      map[string]*encoder.LabelEncoder `json:"encoders,omitempty"`
	AirportCoords map[string]models.Coordinate     `json:"airport_coords,omitempty"`
	Metadata      Metadata                         `json:"metadata"`
}

// Save writes the bundle to a single JSON file, creating parent
// directories as needed.
func Save(path string, a *Artifact) error {
	model, err := ml.Encode(a.Classifier)
	if err != nil {
		return fmt.Errorf("failed to encode classifier: %w", err)
	}

	raw, err := json.MarshalIndent(bundle{
		Model:         model,
		Features:      a.Features,
		CatFeatures:   a.CatFeatures,
		Encoders:      a.Encoders,
		AirportCoords: a.AirportCoords,
		Metadata:      a.Metadata,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// Load reads a bundle from disk. Optional keys (encoders, coordinates) are
// tolerated when absent because earlier artifact revisions did not carry
// them; a missing model or feature list makes the artifact unusable.
func Load(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var b bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact %s: %w", path, err)
	}
	if len(b.Model) == 0 {
		return nil, fmt.Errorf("artifact %s has no model", path)
	}
	if len(b.Features) == 0 {
		return nil, fmt.Errorf("artifact %s has no feature list", path)
	}

	clf, err := ml.Decode(b.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to decode classifier from %s: %w", path, err)
	}

	coords := b.AirportCoords
	if coords == nil {
		coords = map[string]models.Coordinate{}
	}
	return &Artifact{
		Classifier:    clf,
		Features:      b.Features,
		CatFeatures:   b.CatFeatures,
		Encoders:      b.Encoders,
		AirportCoords: coords,
		Metadata:      b.Metadata,
	}, nil
}
