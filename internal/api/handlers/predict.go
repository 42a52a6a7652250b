// Package handlers contains the gin handlers for the prediction API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/flightontime/flight-ai-go/internal/middleware"
	"github.com/flightontime/flight-ai-go/internal/models"
	"github.com/flightontime/flight-ai-go/internal/prediction"
)

// PredictHandler serves POST /predict.
type PredictHandler struct {
	service *prediction.Service
	log     *logrus.Logger
}

func NewPredictHandler(service *prediction.Service, log *logrus.Logger) *PredictHandler {
	return &PredictHandler{service: service, log: log}
}

// Predict scores one flight. Outcomes: 200 with the verdict, 503 while no
// model is loaded, 500 for anything that goes wrong while processing.
func (h *PredictHandler) Predict(c *gin.Context) {
	if !h.service.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "modelo nao carregado"})
		return
	}

	var req models.FlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
		}).WithError(err).Warn("Rejected malformed predict request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro ao processar previsao"})
		return
	}

	result, err := h.service.Predict(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, prediction.ErrModelUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "modelo nao carregado"})
			return
		}
		h.log.WithFields(logrus.Fields{
			"request_id":  middleware.GetRequestID(c),
			"carrier":     req.Carrier,
			"origin":      req.Origin,
			"destination": req.Destination,
		}).WithError(err).Error("Prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erro ao processar previsao"})
		return
	}

	c.JSON(http.StatusOK, result)
}
