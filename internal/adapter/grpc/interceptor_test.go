package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testSecret = "test-secret-123"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func bearer(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func TestAuthInterceptor(t *testing.T) {
	interceptor := AuthInterceptor(NewTokenVerifier(testSecret, ""))
	now := time.Now()

	valid := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	expired := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	})
	wrongKey := signToken(t, "other-secret", jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1"})
	wrongAlg := signToken(t, testSecret, jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "u1"})
	noSubject := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{})

	tests := []struct {
		name             string
		ctx              context.Context
		handlerCalled    bool
		expectedIdentity string
		expectedCode     codes.Code
		expectedErrMsg   string
	}{
		{
			name:             "Valid Token",
			ctx:              bearer(valid),
			handlerCalled:    true,
			expectedIdentity: "u1",
			expectedCode:     codes.OK,
		},
		{
			name:           "Expired Token",
			ctx:            bearer(expired),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name:           "Wrong Signing Key",
			ctx:            bearer(wrongKey),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name:           "Unexpected Algorithm",
			ctx:            bearer(wrongAlg),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "invalid token",
		},
		{
			name:           "Missing Subject",
			ctx:            bearer(noSubject),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "no subject",
		},
		{
			name: "Not A Bearer Token",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("authorization", valid),
			),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "bearer token",
		},
		{
			name:           "Missing Token",
			ctx:            context.Background(),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing metadata",
		},
		{
			name: "Missing Authorization Header",
			ctx: metadata.NewIncomingContext(
				context.Background(),
				metadata.Pairs("other-header", "value"),
			),
			expectedCode:   codes.Unauthenticated,
			expectedErrMsg: "missing authorization header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			var identity string
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				handlerCalled = true
				identity, _ = IdentityFromContext(ctx)
				return "success", nil
			}

			info := &grpc.UnaryServerInfo{
				FullMethod: "/test.Service/Method",
			}

			resp, err := interceptor(tt.ctx, "test-request", info, handler)

			assert.Equal(t, tt.handlerCalled, handlerCalled, "handler called status mismatch")

			if tt.expectedCode == codes.OK {
				assert.NoError(t, err)
				assert.Equal(t, "success", resp)
				assert.Equal(t, tt.expectedIdentity, identity)
			} else {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok, "error should be a gRPC status")
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Contains(t, st.Message(), tt.expectedErrMsg)
			}
		})
	}
}

func TestAuthInterceptor_PublicMethods(t *testing.T) {
	interceptor := AuthInterceptor(NewTokenVerifier(testSecret, ""), "/test.Service/Public")

	var identity string
	var hasIdentity bool
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		identity, hasIdentity = IdentityFromContext(ctx)
		return "success", nil
	}

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/test.Service/Public"}, handler)
	require.NoError(t, err)
	assert.False(t, hasIdentity)

	token := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u9"})
	_, err = interceptor(bearer(token), nil, &grpc.UnaryServerInfo{FullMethod: "/test.Service/Public"}, handler)
	require.NoError(t, err)
	assert.True(t, hasIdentity)
	assert.Equal(t, "u9", identity)

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/test.Service/Private"}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestTokenVerifier_Issuer(t *testing.T) {
	verifier := NewTokenVerifier(testSecret, "stocksim-auth")

	good := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1", Issuer: "stocksim-auth"})
	bad := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1", Issuer: "someone-else"})

	subject, err := verifier.Verify(good)
	require.NoError(t, err)
	assert.Equal(t, "u1", subject)

	_, err = verifier.Verify(bad)
	assert.Error(t, err)
}
