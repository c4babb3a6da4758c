package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats holds a snapshot of connection pool statistics.
type PoolStats struct {
	TotalConns     int32 `json:"total_conns"`
	IdleConns      int32 `json:"idle_conns"`
	AcquiredConns  int32 `json:"acquired_conns"`
	MaxConns       int32 `json:"max_conns"`
	NewConnsCount  int64 `json:"new_conns_count"`
	AcquireCount   int64 `json:"acquire_count"`
	AcquireErrors  int64 `json:"acquire_errors"`
	EmptyAcquires  int64 `json:"empty_acquires"`
	CanceledCount  int64 `json:"canceled_acquires"`
}

// GetPoolStats returns current connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) PoolStats {
	s := pool.Stat()
	return PoolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
		NewConnsCount: s.NewConnsCount(),
		AcquireCount:  s.AcquireCount(),
		AcquireErrors: s.CanceledAcquireCount(),
		EmptyAcquires: s.EmptyAcquireCount(),
		CanceledCount: s.CanceledAcquireCount(),
	}
}

// HealthHandler returns an echo handler that pings the database and reports
// pool statistics. Suitable for readiness probes.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		if err := pool.Ping(ctx); err != nil {
			status = "unavailable"
			code = http.StatusServiceUnavailable
		}

		return c.JSON(code, map[string]interface{}{
			"status": status,
			"db":     GetPoolStats(pool),
		})
	}
}
