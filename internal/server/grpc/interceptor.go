package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/idkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// publicServicePrefixes lists the services reachable without a token.
var publicServicePrefixes = []string{
	"/grpc.health.v1.Health/",
}

func isPublic(fullMethod string) bool {
	for _, p := range publicServicePrefixes {
		if strings.HasPrefix(fullMethod, p) {
			return true
		}
	}
	return false
}

func errUnauthenticated() error {
	return status.Error(codes.Unauthenticated, "unauthenticated")
}

// authenticate verifies the "authorization" metadata and returns ctx
// carrying the claims.
func (s *GRPCServer) authenticate(ctx context.Context, fullMethod string) (context.Context, error) {
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			header = values[0]
		}
	}

	claims, err := s.gate.Authenticate(header)
	if err != nil {
		args := []any{"kind", auth.Kind(err), "method", fullMethod}
		if p, ok := peer.FromContext(ctx); ok {
			args = append(args, "client_ip", p.Addr.String())
		}
		s.logger.Warn(ctx, "auth rejected", args...)
		return nil, errUnauthenticated()
	}

	return auth.WithClaims(ctx, claims), nil
}

func (s *GRPCServer) unaryAuthInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	ctx, err := s.authenticate(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

// authedStream swaps in the context that carries claims.
type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authedStream) Context() context.Context { return a.ctx }

func (s *GRPCServer) streamAuthInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if isPublic(info.FullMethod) {
		return handler(srv, ss)
	}

	ctx, err := s.authenticate(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
}
