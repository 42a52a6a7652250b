// Package store persists prediction history to PostgreSQL. The store is
// optional: the server runs without it when no database is configured.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/flightontime/flight-ai-go/internal/models"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PredictionStore writes one row per served prediction.
type PredictionStore struct {
	db  DB
	log *logrus.Logger
}

func NewPredictionStore(db DB, log *logrus.Logger) *PredictionStore {
	return &PredictionStore{db: db, log: log}
}

const insertPrediction = `
	INSERT INTO predictions (
		id, carrier, origin, destination, departure,
		probability, risk, distance_km, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Record inserts a prediction row.
func (s *PredictionStore) Record(ctx context.Context, rec models.PredictionRecord) error {
	_, err := s.db.Exec(ctx, insertPrediction,
		rec.ID, rec.Carrier, rec.Origin, rec.Destination, rec.Departure,
		rec.Probability, rec.Risk, rec.DistanceKM, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

const createPredictionsTable = `
	CREATE TABLE IF NOT EXISTS predictions (
		id UUID PRIMARY KEY,
		carrier TEXT NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		departure TIMESTAMPTZ NOT NULL,
		probability DOUBLE PRECISION NOT NULL,
		risk TEXT NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`

// Migrate creates the predictions table if it does not exist.
func (s *PredictionStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createPredictionsTable); err != nil {
		return fmt.Errorf("failed to create predictions table: %w", err)
	}
	s.log.Debug("Prediction history schema ready")
	return nil
}
