package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/simaogato/stocksim-backend/internal/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type identityKey struct{}

// IdentityFromContext returns the caller identity stored by AuthInterceptor
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityKey{}).(string)
	return identity, ok && identity != ""
}

// ContextWithIdentity returns a copy of ctx carrying identity
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// TokenVerifier validates HS256 identity tokens issued by the auth provider
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier for tokens signed with secret
// An empty issuer accepts tokens from any issuer
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses tokenString and returns its subject
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}

	return claims.Subject, nil
}

// AuthInterceptor returns a gRPC unary server interceptor that resolves
// the caller identity from an "authorization: Bearer <jwt>" metadata entry.
// If the token is missing or invalid, it returns status.Unauthenticated.
// Methods listed in public skip the check; a token on them is still honored.
func AuthInterceptor(verifier *TokenVerifier, public ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]bool, len(public))
	for _, m := range public {
		skip[m] = true
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		identity, err := identityFromMetadata(ctx, verifier)
		if err != nil {
			if skip[info.FullMethod] {
				return handler(ctx, req)
			}
			return nil, err
		}

		return handler(ContextWithIdentity(ctx, identity), req)
	}
}

func identityFromMetadata(ctx context.Context, verifier *TokenVerifier) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return "", status.Error(codes.Unauthenticated, "missing authorization header")
	}

	tokenString, found := strings.CutPrefix(authHeaders[0], "Bearer ")
	if !found || tokenString == "" {
		return "", status.Error(codes.Unauthenticated, "authorization header must be a bearer token")
	}

	identity, err := verifier.Verify(tokenString)
	if err != nil {
		return "", status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}

	return identity, nil
}

// MetricsInterceptor records the duration and status code of every unary call
func MetricsInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		metrics.APIRequestDuration.
			WithLabelValues("grpc", info.FullMethod, status.Code(err).String()).
			Observe(time.Since(start).Seconds())
		return resp, err
	}
}
