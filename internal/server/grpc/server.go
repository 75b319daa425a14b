// Package grpc exposes the standard gRPC health service so orchestrators
// can probe the application without going through the web stack.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// netListen is a seam for testing net.Listen.
var netListen = net.Listen

// ServiceName is the health service name reported alongside the overall status.
const ServiceName = "gophsecrets"

type GRPCServer struct {
	address string
	logger  logging.Logger
	health  *health.Server
	db      Pinger

	// checkInterval is how often the database is pinged to refresh the
	// reported status; zero checks only at startup.
	checkInterval time.Duration
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func NewGRPCServer(a string, l logging.Logger, db Pinger, checkInterval time.Duration) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		health:        health.NewServer(),
		db:            db,
		checkInterval: checkInterval,
	}
}

// Health returns the health server so callers can flip statuses.
func (s *GRPCServer) Health() *health.Server {
	return s.health
}

// Run serves until ctx is cancelled. While running, the status follows the
// database ping taken every checkInterval; it is NOT_SERVING once shutdown
// begins.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := netListen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.refreshStatus(ctx)
	go s.watchStatus(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

// watchStatus re-checks the database until ctx is cancelled.
func (s *GRPCServer) watchStatus(ctx context.Context) {
	if s.checkInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshStatus(ctx)
		}
	}
}

// refreshStatus reports SERVING when the database answers a ping.
func (s *GRPCServer) refreshStatus(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(ctx, "database ping failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
