// Package grpcserver exposes the standard gRPC health service so
// orchestrators can tell when the listings dataset is ready.
package grpcserver

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ListingsService is the health service name reported for the dataset.
const ListingsService = "cardash.Listings"

type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// New registers the health service. Both the overall status and the
// listings service start as NOT_SERVING.
func New(opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ListingsService, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s
}

// SetReady flips the listings service and the overall status.
func (s *Server) SetReady(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ListingsService, status)
}

func (s *Server) Serve(ln net.Listener) error {
	return s.grpc.Serve(ln)
}

// Stop marks everything NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
