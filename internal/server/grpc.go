// ABOUTME: gRPC service binding the Runtime proto to the orchestrator
// ABOUTME: Converse hands the duplex stream off, Health reports serving state

package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/AltairaLabs/omnia-runtime/proto/omnia"
)

// runtimeService implements omnia.Runtime on top of the orchestrator.
type runtimeService struct {
	omnia.UnimplementedRuntimeServer

	server *Server
	logger *slog.Logger
}

// Converse runs the conversation state machine for one client connection.
// The generated stream satisfies the orchestrator's Channel interface, so the
// orchestrator never sees gRPC types beyond the messages themselves.
func (r *runtimeService) Converse(stream omnia.Runtime_ConverseServer) error {
	if !r.server.ready.Load() {
		r.logger.Warn("converse rejected, runtime not ready")
		return status.Error(codes.Unavailable, "runtime is not ready")
	}
	return r.server.orch.Run(stream.Context(), stream)
}

// Health reports whether the runtime can take new conversations. It stays
// reachable without credentials so probes work before a token is minted.
func (r *runtimeService) Health(ctx context.Context, req *omnia.HealthRequest) (*omnia.HealthResponse, error) {
	switch {
	case r.server.draining.Load():
		return &omnia.HealthResponse{Healthy: false, Status: "draining"}, nil
	case !r.server.ready.Load():
		return &omnia.HealthResponse{Healthy: false, Status: "initializing"}, nil
	default:
		return &omnia.HealthResponse{Healthy: true, Status: "serving"}, nil
	}
}
