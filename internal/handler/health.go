package handler

import (
	"net/http"
	"time"

	"fiadopos/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	rdb *redis.Client
	cb  *infra.CircuitBreaker
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, cb: cb}
}

// Health godoc
// @Summary      Estado del servicio
// @Description  Reporta conectividad de Postgres y Redis y el estado del circuit breaker de notificaciones. 503 si la base de datos no responde.
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{
		"status":          "ok",
		"database":        "ok",
		"redis":           "ok",
		"circuit_breaker": h.cb.State().String(),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		status["database"] = "down"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}

	// Redis down degrades caching and async notifications, not core writes.
	if h.rdb == nil || h.rdb.Ping(ctx).Err() != nil {
		status["redis"] = "down"
		if status["status"] == "ok" {
			status["status"] = "degraded"
		}
	}

	c.JSON(code, status)
}
