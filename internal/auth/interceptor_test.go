// ABOUTME: Unit tests for the gRPC auth interceptors
// ABOUTME: Covers metadata extraction, rejection paths, and the Health exemption

package auth

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const converseMethod = "/omnia.Runtime/Converse"

func newTestVerifier(t *testing.T) *JWTVerifier {
	t.Helper()
	return NewJWTVerifier([]byte("test-secret-key-for-jwt-signing"))
}

func bearerContext(t *testing.T, verifier *JWTVerifier, subject string) context.Context {
	t.Helper()
	token, err := verifier.Generate(subject, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestUnaryInterceptor_ValidToken(t *testing.T) {
	verifier := newTestVerifier(t)
	interceptor := UnaryInterceptor(verifier, nil)

	var seen *Caller
	handler := func(ctx context.Context, req any) (any, error) {
		seen = CallerFromContext(ctx)
		return "ok", nil
	}

	resp, err := interceptor(
		bearerContext(t, verifier, "probe-7"),
		nil,
		&grpc.UnaryServerInfo{FullMethod: converseMethod},
		handler,
	)
	if err != nil {
		t.Fatalf("interceptor error = %v", err)
	}
	if resp != "ok" {
		t.Errorf("resp = %v, want ok", resp)
	}
	if seen == nil || seen.Subject != "probe-7" {
		t.Errorf("handler caller = %v, want subject probe-7", seen)
	}
}

func TestUnaryInterceptor_Rejections(t *testing.T) {
	verifier := newTestVerifier(t)
	interceptor := UnaryInterceptor(verifier, nil)

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{
			name: "no metadata",
			ctx:  context.Background(),
		},
		{
			name: "no authorization header",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-other", "v")),
		},
		{
			name: "not a bearer token",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic dXNlcg==")),
		},
		{
			name: "invalid token",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer garbage")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := func(ctx context.Context, req any) (any, error) {
				called = true
				return nil, nil
			}

			_, err := interceptor(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: converseMethod}, handler)
			if err == nil {
				t.Fatal("interceptor should have rejected the request")
			}
			if status.Code(err) != codes.Unauthenticated {
				t.Errorf("code = %v, want Unauthenticated", status.Code(err))
			}
			if called {
				t.Error("handler ran despite auth failure")
			}
		})
	}
}

func TestUnaryInterceptor_HealthExempt(t *testing.T) {
	verifier := newTestVerifier(t)
	interceptor := UnaryInterceptor(verifier, nil)

	called := false
	handler := func(ctx context.Context, req any) (any, error) {
		called = true
		return nil, nil
	}

	// No metadata at all; Health must still pass.
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: healthMethod}, handler)
	if err != nil {
		t.Fatalf("interceptor error = %v", err)
	}
	if !called {
		t.Error("Health handler did not run")
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeServerStream) Context() context.Context { return f.ctx }

func TestStreamInterceptor_ValidToken(t *testing.T) {
	verifier := newTestVerifier(t)
	interceptor := StreamInterceptor(verifier, nil)

	var seen *Caller
	handler := func(srv any, ss grpc.ServerStream) error {
		seen = CallerFromContext(ss.Context())
		return nil
	}

	stream := &fakeServerStream{ctx: bearerContext(t, verifier, "probe-7")}
	err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: converseMethod}, handler)
	if err != nil {
		t.Fatalf("interceptor error = %v", err)
	}
	if seen == nil || seen.Subject != "probe-7" {
		t.Errorf("handler caller = %v, want subject probe-7", seen)
	}
}

func TestStreamInterceptor_InvalidToken(t *testing.T) {
	verifier := newTestVerifier(t)
	interceptor := StreamInterceptor(verifier, nil)

	called := false
	handler := func(srv any, ss grpc.ServerStream) error {
		called = true
		return nil
	}

	md := metadata.Pairs("authorization", "Bearer garbage")
	stream := &fakeServerStream{ctx: metadata.NewIncomingContext(context.Background(), md)}
	err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: converseMethod}, handler)
	if err == nil {
		t.Fatal("interceptor should have rejected the stream")
	}
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
	if called {
		t.Error("handler ran despite auth failure")
	}
}

func TestStreamInterceptor_ExpiredToken(t *testing.T) {
	verifier := newTestVerifier(t)
	interceptor := StreamInterceptor(verifier, nil)

	token, err := verifier.Generate("probe-7", -time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	md := metadata.Pairs("authorization", "Bearer "+token)
	stream := &fakeServerStream{ctx: metadata.NewIncomingContext(context.Background(), md)}

	err = interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: converseMethod}, func(srv any, ss grpc.ServerStream) error {
		return nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}
