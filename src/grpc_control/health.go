package grpc_control

import (
	"context"
	"time"

	"ipo-wizard/src/interfaces"
	"ipo-wizard/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const probeTimeout = 3 * time.Second

// HealthService publishes the standard gRPC health protocol. The serving
// status follows the storage backend: NOT_SERVING while it cannot be pinged.
type HealthService struct {
	ServiceName string
	Storage     interfaces.IPinger
	Logger      *logger.Logger

	server *health.Server
	last   healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthService creates a new instance of HealthService
func NewHealthService(serviceName string, store interfaces.IPinger, log *logger.Logger) *HealthService {
	hs := &HealthService{
		ServiceName: serviceName,
		Storage:     store,
		Logger:      log,
		server:      health.NewServer(),
		last:        healthpb.HealthCheckResponse_UNKNOWN,
	}
	hs.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// -----------------------------------------------------------------------------

// Register attaches the health service to a gRPC server.
func (hs *HealthService) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, hs.server)
}

// -----------------------------------------------------------------------------

// Probe pings storage and updates the published status.
func (hs *HealthService) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if hs.Storage != nil {
		if err := hs.Storage.Ping(ctx); err != nil {
			hs.Logger.Warning("gRPC health: storage unreachable: %v", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	hs.set(status)
	return status
}

func (hs *HealthService) set(status healthpb.HealthCheckResponse_ServingStatus) {
	if status != hs.last {
		hs.Logger.Info("gRPC health: %s -> %s", hs.last, status)
		hs.last = status
	}
	hs.server.SetServingStatus("", status)
	hs.server.SetServingStatus(hs.ServiceName, status)
}

// -----------------------------------------------------------------------------

// Shutdown flips every service to NOT_SERVING and ignores later updates.
func (hs *HealthService) Shutdown() {
	hs.server.Shutdown()
}

// -----------------------------------------------------------------------------
// utils.Job

func (hs *HealthService) Name() string {
	return "health_probe"
}

func (hs *HealthService) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	hs.Probe(ctx)
	return nil
}
