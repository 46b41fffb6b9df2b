package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/router"
)

const healthTimeout = 2 * time.Second

type dbPinger interface {
	Ping(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type HealthResponse struct {
	Status string `json:"status"`
}

func registerHealth(r *router.Router, db dbPinger, cache cachePinger) {
	r.GET("/health", func(req *router.Request) (any, error) {
		ctx, cancel := context.WithTimeout(req.Context(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "component", "postgres", "error", err)
			return nil, goerror.NewUnavailable("Database unavailable", err)
		}

		if err := cache.Ping(ctx).Err(); err != nil {
			slog.WarnContext(ctx, "health check failed", "component", "redis", "error", err)
			return nil, goerror.NewUnavailable("Cache unavailable", err)
		}

		return HealthResponse{Status: "ok"}, nil
	})
}
