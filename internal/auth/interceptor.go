// ABOUTME: gRPC interceptors that authenticate requests with bearer JWTs
// ABOUTME: Extracts the token from metadata and populates a Caller on context

package auth

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// healthMethod stays unauthenticated so probes work without credentials.
const healthMethod = "/omnia.Runtime/Health"

// logAuthFailure logs an authentication failure with structured context.
func logAuthFailure(logger *slog.Logger, ctx context.Context, reason string, attrs ...any) {
	if logger == nil {
		return
	}
	baseAttrs := []any{"reason", reason}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		baseAttrs = append(baseAttrs, "peer_addr", p.Addr.String())
	}
	baseAttrs = append(baseAttrs, attrs...)
	logger.Warn("auth failure", baseAttrs...)
}

// UnaryInterceptor returns a gRPC unary interceptor that authenticates
// requests. The optional logger enables auth failure logging.
func UnaryInterceptor(tokens TokenVerifier, logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if info.FullMethod == healthMethod {
			return handler(ctx, req)
		}

		caller, err := authenticate(ctx, tokens, logger)
		if err != nil {
			return nil, err
		}

		return handler(WithCaller(ctx, caller), req)
	}
}

// StreamInterceptor returns a gRPC stream interceptor that authenticates
// requests before the handler sees the stream.
func StreamInterceptor(tokens TokenVerifier, logger *slog.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if info.FullMethod == healthMethod {
			return handler(srv, ss)
		}

		caller, err := authenticate(ss.Context(), tokens, logger)
		if err != nil {
			return err
		}

		wrapped := &wrappedServerStream{
			ServerStream: ss,
			ctx:          WithCaller(ss.Context(), caller),
		}
		return handler(srv, wrapped)
	}
}

// wrappedServerStream wraps a grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// authenticate extracts and verifies the bearer token from gRPC metadata.
func authenticate(ctx context.Context, tokens TokenVerifier, logger *slog.Logger) (*Caller, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		logAuthFailure(logger, ctx, "missing_metadata")
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		logAuthFailure(logger, ctx, "missing_authorization")
		return nil, status.Error(codes.Unauthenticated, "missing authorization header")
	}

	authHeader := authHeaders[0]
	if !strings.HasPrefix(authHeader, "Bearer ") {
		logAuthFailure(logger, ctx, "bad_authorization_format")
		return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
	}

	subject, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		logAuthFailure(logger, ctx, "token_rejected", "error", err.Error())
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	return &Caller{Subject: subject}, nil
}
