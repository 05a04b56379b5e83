package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"cardash/internal/grpcserver"
	"cardash/pkg/utils"
)

// Exits 0 when the listings service reports SERVING, 1 otherwise.
func main() {
	addr := flag.String("addr", utils.LoadServerConfig().GRPCAddr, "gRPC health address")
	service := flag.String("service", grpcserver.ListingsService, "service name to check (empty for overall)")
	timeout := flag.Duration("timeout", 3*time.Second, "check timeout")
	flag.Parse()

	target := *addr
	if len(target) > 0 && target[0] == ':' {
		target = "127.0.0.1" + target
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("grpc dial %s failed: %v", target, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: *service})
	if err != nil {
		log.Printf("health check failed: %v", err)
		os.Exit(1)
	}
	log.Printf("%s: %s", *service, resp.GetStatus())
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}
