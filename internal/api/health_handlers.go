package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Component and overall health states.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports whether the habit store answers, plus the API version and uptime",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status    string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	LatencyMS int64  `json:"latency_ms" doc:"Round trip of the check in milliseconds"`
	Message   string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status        string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Version       string                     `json:"version" doc:"API version"`
	UptimeSeconds int64                      `json:"uptime_seconds" doc:"Seconds since the server started"`
	Components    map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	db := s.checkStore(ctx)

	return &HealthOutput{
		Body: HealthResponse{
			Status:        db.Status,
			Version:       APIVersion,
			UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
			Components:    map[string]ComponentHealth{"database": db},
		},
	}, nil
}

// checkStore pings the habit store with a short deadline.
func (s *Server) checkStore(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "store not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		s.logger.Error("health check: store ping failed", "error", err)
		return ComponentHealth{Status: statusUnhealthy, LatencyMS: latency, Message: "store unreachable"}
	}
	return ComponentHealth{Status: statusHealthy, LatencyMS: latency}
}
