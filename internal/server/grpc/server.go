// Package grpc exposes the gRPC health service publicly and server
// reflection behind the bearer-token interceptor.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/idkeeper/internal/logging"
	"github.com/dmitrijs2005/idkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type GRPCServer struct {
	address string
	gate    *auth.Gate
	health  *health.Server
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, gate *auth.Gate) *GRPCServer {
	return &GRPCServer{
		address: a,
		gate:    gate,
		health:  health.NewServer(),
		logger:  l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.unaryAuthInterceptor),
		grpc.ChainStreamInterceptor(s.streamAuthInterceptor),
	)

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	return srv.Serve(listen)
}
