package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// HealthHandler reports whether the backing stores answer
type HealthHandler struct {
	postgres *gorm.DB
	mongo    *mongo.Client
	redis    redis.Cmdable
}

func NewHealthHandler(pg *gorm.DB, mg *mongo.Client, rdb redis.Cmdable) *HealthHandler {
	return &HealthHandler{postgres: pg, mongo: mg, redis: rdb}
}

// HealthCheck answers 200 when the databases respond. Redis being down only degrades the status.
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"postgres": "ok", "mongo": "ok", "redis": "ok"}
	status, code := "healthy", http.StatusOK

	if sqlDB, err := h.postgres.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["postgres"] = "down"
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	if err := h.mongo.Ping(ctx, nil); err != nil {
		checks["mongo"] = "down"
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down"
		if code == http.StatusOK {
			status = "degraded"
		}
	}

	return c.JSON(code, echo.Map{
		"status":  status,
		"service": "lumina-api",
		"checks":  checks,
	})
}
