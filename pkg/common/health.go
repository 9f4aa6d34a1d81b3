package common

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const dependencyCheckTimeout = 2 * time.Second

// DependencyCheck probes a single backing dependency.
type DependencyCheck func(ctx context.Context) error

// HealthStatus is the /healthz payload.
type HealthStatus struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Health returns a handler reporting overall service health. Each dependency
// is probed with its own short deadline; any unhealthy dependency turns the
// response into a 503 so load balancers stop routing here.
func Health(service, version string, checks map[string]DependencyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		deps := make(map[string]string, len(checks))

		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), dependencyCheckTimeout)
			err := check(ctx)
			cancel()

			if err != nil {
				deps[name] = "unhealthy: " + err.Error()
				status = "unhealthy"
				continue
			}
			deps[name] = "healthy"
		}

		code := http.StatusOK
		if status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, HealthStatus{
			Status:       status,
			Service:      service,
			Version:      version,
			Dependencies: deps,
		})
	}
}
