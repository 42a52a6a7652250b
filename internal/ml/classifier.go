package ml

import (
	"encoding/json"
	"fmt"
)

// Classifier scores a feature row with the probability of the positive class
// (flight delayed more than the target cutoff). Implementations are
// immutable after fitting and safe for concurrent use.
type Classifier interface {
	Score(s Sample) (float64, error)
}

const typeGBDT = "gbdt"

type envelope struct {
	Type  string          `json:"type"`
	Model json.RawMessage `json:"model"`
}

// Encode serializes a classifier with a type tag so artifacts remain
// loadable if more model families are added later.
func Encode(c Classifier) (json.RawMessage, error) {
	switch m := c.(type) {
	case *GBDT:
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal gbdt model: %w", err)
		}
		return json.Marshal(envelope{Type: typeGBDT, Model: raw})
	default:
		return nil, fmt.Errorf("unsupported classifier type %T", c)
	}
}

// Decode deserializes a classifier previously produced by Encode.
func Decode(data json.RawMessage) (Classifier, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model envelope: %w", err)
	}
	switch env.Type {
	case typeGBDT:
		var m GBDT
		if err := json.Unmarshal(env.Model, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gbdt model: %w", err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown classifier type %q", env.Type)
	}
}
