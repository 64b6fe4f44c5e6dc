package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 3 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type breakerState interface {
	State() gobreaker.State
}

// HealthChecks names the dependencies the health endpoint reports on.
type HealthChecks struct {
	DB    pinger
	Redis pinger
	// Breaker guards the database queries. Nil omits it from the report.
	Breaker breakerState
}

// HealthHandlerFunc pings the database and Redis concurrently and reports the
// database breaker state. It responds 503 when a ping fails or the breaker is open.
func HealthHandlerFunc(checks HealthChecks, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		report := map[string]string{"db": "ok", "redis": "ok"}
		var dbErr, redisErr error

		var g errgroup.Group
		g.Go(func() error {
			dbErr = checks.DB.Ping(ctx)
			return nil
		})
		g.Go(func() error {
			redisErr = checks.Redis.Ping(ctx)
			return nil
		})
		_ = g.Wait()

		healthy := true
		if dbErr != nil {
			log.Error("health check: db ping failed", "err", dbErr)
			report["db"] = "error"
			healthy = false
		}
		if redisErr != nil {
			log.Error("health check: redis ping failed", "err", redisErr)
			report["redis"] = "error"
			healthy = false
		}
		if checks.Breaker != nil {
			state := checks.Breaker.State()
			report["breaker"] = state.String()
			if state == gobreaker.StateOpen {
				log.Warn("health check: database breaker open")
				healthy = false
			}
		}

		status := http.StatusOK
		report["status"] = "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			report["status"] = "degraded"
		}
		writeJSON(w, status, report)
	}
}
