package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/flightontime/flight-ai-go/internal/api"
	"github.com/flightontime/flight-ai-go/internal/artifact"
	"github.com/flightontime/flight-ai-go/internal/config"
	"github.com/flightontime/flight-ai-go/internal/database"
	"github.com/flightontime/flight-ai-go/internal/decision"
	"github.com/flightontime/flight-ai-go/internal/features"
	"github.com/flightontime/flight-ai-go/internal/holiday"
	"github.com/flightontime/flight-ai-go/internal/logging"
	"github.com/flightontime/flight-ai-go/internal/prediction"
	"github.com/flightontime/flight-ai-go/internal/store"
	"github.com/flightontime/flight-ai-go/internal/weather"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.Environment)

	// A missing or corrupt artifact is not fatal: the server starts
	// degraded, answers health checks, and returns 503 on /predict.
	art, err := artifact.Load(cfg.Artifact.Path)
	if err != nil {
		log.WithError(err).Warn("Model artifact unavailable, serving degraded")
		art = nil
	} else {
		log.WithFields(map[string]interface{}{
			"version":   art.Metadata.Version,
			"threshold": art.Metadata.Threshold,
			"airports":  len(art.AirportCoords),
		}).Info("Model artifact loaded")
	}

	var provider weather.Provider
	client := weather.NewClient(cfg.Weather)
	provider = client

	var redisClient *database.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedisConnection(cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, weather cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
			ttl := time.Duration(cfg.Weather.CacheTTLMinutes) * time.Minute
			provider = weather.NewCachedProvider(client, redisClient, ttl, log)
		}
	}

	var db *database.PostgresDB
	var recorder *store.PredictionStore
	if cfg.Database.Enabled {
		db, err = database.NewPostgresConnection(cfg.Database)
		if err != nil {
			log.WithError(err).Warn("Database unavailable, prediction history disabled")
			db = nil
		} else {
			defer db.Close()
			recorder = store.NewPredictionStore(db.Pool, log)
			if err := recorder.Migrate(context.Background()); err != nil {
				log.WithError(err).Warn("Prediction history schema migration failed")
				recorder = nil
			}
		}
	}

	policy := decision.Policy{
		Low:  cfg.Decision.LowThreshold,
		High: cfg.Decision.HighThreshold,
	}
	if policy.Low <= 0 {
		policy.Low = 0.35
		if art != nil && art.Metadata.Threshold > 0 {
			policy.Low = art.Metadata.Threshold
		}
	}

	var pipe *features.Pipeline
	if art != nil {
		pipe = &features.Pipeline{
			Coords:   art.AirportCoords,
			Calendar: holiday.NewBrazil(),
			Weather:  provider,
			Encoders: art.Encoders,
			Features: art.Features,
		}
	}

	service := prediction.New(art, pipe, policy, log)
	if recorder != nil {
		service.WithRecorder(recorder)
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	api.SetupRoutes(router, service, db, redisClient, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}
