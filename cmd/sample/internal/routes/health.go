package routes

import (
	"context"
	"time"

	"github.com/bjaus/xroute"
)

// Health reports liveness.
type Health struct {
	xroute.Router
	started time.Time
}

// HealthStatus is the health check body.
type HealthStatus struct {
	Status string    `json:"status"`
	Uptime string    `json:"uptime"`
	Time   time.Time `json:"time"`
}

// Check returns the current status.
func (h *Health) Check(_ context.Context, _ xroute.Args) (any, error) {
	now := time.Now()
	return &HealthStatus{Status: "ok", Uptime: now.Sub(h.started).Round(time.Second).String(), Time: now}, nil
}

func defineHealth() {
	xroute.Provide("health", func() xroute.Routable {
		return &Health{
			Router:  xroute.Router{Doc: &xroute.Operation{Tags: []string{"ops"}}},
			started: time.Now(),
		}
	})

	xroute.MustDefine(func(b *xroute.Builder[*Health]) {
		b.Get("Check", (*Health).Check,
			xroute.Path("/"),
			xroute.WithSummary("Health check"),
			xroute.WithJSONResponse(200, "Service is up", xroute.SchemaFor[HealthStatus]()),
		)
	})
}
