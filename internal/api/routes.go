// Package api wires the gin router for the prediction service.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/flightontime/flight-ai-go/internal/api/handlers"
	"github.com/flightontime/flight-ai-go/internal/database"
	"github.com/flightontime/flight-ai-go/internal/middleware"
	"github.com/flightontime/flight-ai-go/internal/prediction"
)

// SetupRoutes registers all routes and middleware on the router.
func SetupRoutes(router *gin.Engine, service *prediction.Service, db *database.PostgresDB, redis *database.RedisClient, log *logrus.Logger) {
	router.Use(middleware.RequestID(), middleware.RequestLogger(log), gin.Recovery())

	health := handlers.NewHealthHandler(service, db, redis)
	router.GET("/health", health.Health)

	predict := handlers.NewPredictHandler(service, log)
	router.POST("/predict", predict.Predict)
}
