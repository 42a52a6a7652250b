package models

import (
	"fmt"
	"time"
)

// FlightRequest is the JSON body accepted by POST /predict. Field names
// follow the public contract of the FlightOnTime API.
type FlightRequest struct {
	Carrier       string   `json:"companhia" binding:"required"`
	Origin        string   `json:"origem" binding:"required"`
	Destination   string   `json:"destino" binding:"required"`
	Departure     string   `json:"data_partida" binding:"required"`
	DistanceKM    *float64 `json:"distancia_km"`
	Precipitation *float64 `json:"precipitation"`
	WindSpeed     *float64 `json:"wind_speed"`
}

// departureLayouts are the timestamp formats accepted for data_partida.
var departureLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDeparture parses the scheduled departure timestamp. An unparseable
// timestamp is a hard error: the request is malformed.
func (r *FlightRequest) ParseDeparture() (time.Time, error) {
	for _, layout := range departureLayouts {
		if t, err := time.Parse(layout, r.Departure); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid data_partida %q: expected an ISO date-time", r.Departure)
}

// UsedInputs echoes the values the model actually saw, so callers can tell
// computed distance from supplied distance and live weather from fallback.
type UsedInputs struct {
	Distance      float64 `json:"distancia"`
	Precipitation float64 `json:"chuva"`
	WindSpeed     float64 `json:"vento"`
	WeatherSource string  `json:"fonte_clima"`
	Holiday       int     `json:"feriado"`
}

// PredictionResult is the JSON body returned by POST /predict.
type PredictionResult struct {
	Forecast    string     `json:"previsao"`
	Probability float64    `json:"probabilidade"`
	Color       string     `json:"cor"`
	Risk        string     `json:"risco"`
	Inputs      UsedInputs `json:"dados_utilizados"`
}

// PredictionRecord is the row persisted to the optional prediction history
// store after a successful prediction.
type PredictionRecord struct {
	ID          string
	Carrier     string
	Origin      string
	Destination string
	Departure   time.Time
	Probability float64
	Risk        string
	DistanceKM  float64
	CreatedAt   time.Time
}

// Coordinate is an airport position extracted from the training dataset.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
