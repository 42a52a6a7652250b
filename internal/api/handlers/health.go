package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/flightontime/flight-ai-go/internal/database"
	"github.com/flightontime/flight-ai-go/internal/prediction"
)

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status       string       `json:"status"`
	Timestamp    time.Time    `json:"timestamp"`
	ModelLoaded  bool         `json:"model_loaded"`
	ModelVersion string       `json:"model_version,omitempty"`
	UptimeSecs   int64        `json:"uptime_seconds"`
	Services     Services     `json:"services"`
	Memory       *MemoryStats `json:"memory,omitempty"`
}

// Services reports the state of the optional backing services.
type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// MemoryStats is a small slice of host memory telemetry.
type MemoryStats struct {
	UsedPercent float64 `json:"used_percent"`
	TotalMB     uint64  `json:"total_mb"`
	AvailableMB uint64  `json:"available_mb"`
}

// HealthHandler serves GET /health. The endpoint answers 200 as long as the
// process can serve predictions; a missing model or failing backing service
// degrades the status without taking the endpoint down.
type HealthHandler struct {
	service *prediction.Service
	db      *database.PostgresDB
	redis   *database.RedisClient
	started time.Time
}

func NewHealthHandler(service *prediction.Service, db *database.PostgresDB, redis *database.RedisClient) *HealthHandler {
	return &HealthHandler{
		service: service,
		db:      db,
		redis:   redis,
		started: time.Now(),
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC(),
		ModelLoaded:  h.service.Ready(),
		ModelVersion: h.service.ModelVersion(),
		UptimeSecs:   int64(time.Since(h.started).Seconds()),
		Services: Services{
			Database: "disabled",
			Redis:    "disabled",
		},
	}
	if !response.ModelLoaded {
		response.Status = "degraded"
	}

	if h.db != nil {
		response.Services.Database = "ok"
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}
	}
	if h.redis != nil {
		response.Services.Redis = "ok"
		if err := h.redis.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Redis = "error"
			response.Status = "degraded"
		}
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		response.Memory = &MemoryStats{
			UsedPercent: vm.UsedPercent,
			TotalMB:     vm.Total / 1024 / 1024,
			AvailableMB: vm.Available / 1024 / 1024,
		}
	}

	c.JSON(http.StatusOK, response)
}
