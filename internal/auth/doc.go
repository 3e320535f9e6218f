// Package auth provides bearer-token authentication for the runtime's gRPC
// surface.
//
// # Tokens
//
// Callers present an HS256-signed JWT in the authorization metadata:
//
//	authorization: Bearer <jwt>
//
// Tokens must carry iss=omnia, an unexpired exp, and a non-empty sub naming
// the caller. The JWTVerifier also mints tokens for the probe client and
// tests:
//
//	token, err := verifier.Generate("probe", time.Hour)
//
// # Interceptors
//
// UnaryInterceptor and StreamInterceptor reject unauthenticated requests
// with codes.Unauthenticated before any handler work. The Health method is
// exempt so load balancers and the CLI health subcommand can probe without
// credentials. On success handlers can read the identity back:
//
//	caller := auth.CallerFromContext(ctx)
//
// Auth is optional. When no token secret is configured the server installs
// no interceptors and CallerFromContext returns nil.
package auth
