package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/harvester-api/internal/core"
)

const healthTimeout = 2 * time.Second

// healthHandler pings every checker and returns {status:"ok"} or SERVICE_UNAVAILABLE.
func healthHandler(checkers map[string]core.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		for name, c := range checkers {
			if c == nil {
				continue
			}
			if err := c.Ping(ctx); err != nil {
				loggerFrom(r).WarnContext(ctx, "health check failed",
					slog.String("dependency", name), slog.Any("error", err))
				WriteFail(w, NewAPIError(CodeServiceUnavailable, ""))
				return
			}
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		WriteOK(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
