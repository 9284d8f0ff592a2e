package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const pingTimeout = 2 * time.Second

func (s *Server) healthz(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if err := s.db.HealthCheck(c.Request.Context(), pingTimeout); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthServer serves grpc.health.v1 and keeps the status in step with the store.
type HealthServer struct {
	hs       *health.Server
	db       Pinger
	interval time.Duration
	logger   *zap.Logger
}

func NewHealthServer(db Pinger, interval time.Duration, logger *zap.Logger) *HealthServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthServer{hs: health.NewServer(), db: db, interval: interval, logger: logger}
}

func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.hs)
}

// Probe pings the store once and publishes the result for the overall service.
func (h *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.db != nil {
		if err := h.db.HealthCheck(ctx, pingTimeout); err != nil {
			h.logger.Warn("health.db_unreachable", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.hs.SetServingStatus("", status)
	return status
}

// Run probes on every tick until ctx is done, then marks the service as shutting down.
func (h *HealthServer) Run(ctx context.Context) {
	h.Probe(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.hs.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Check answers a health request in-process.
func (h *HealthServer) Check(ctx context.Context) (*healthpb.HealthCheckResponse, error) {
	return h.hs.Check(ctx, &healthpb.HealthCheckRequest{})
}
