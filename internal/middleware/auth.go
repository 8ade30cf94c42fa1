package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"consult-scheduler/internal/auth"
	"consult-scheduler/internal/rpc"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// skip auth for these
var open = map[string]bool{
	rpc.FullMethod(rpc.MethodRegister):        true,
	rpc.FullMethod(rpc.MethodVerifyOTP):       true,
	rpc.FullMethod(rpc.MethodLogin):           true,
	rpc.FullMethod(rpc.MethodListConsultants): true,
	rpc.FullMethod(rpc.MethodGetConsultant):   true,
}

// WithClaims stores verified token claims on ctx.
func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// UserID returns the authenticated principal id, if any.
func UserID(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	if !ok || c.UserID == "" {
		return "", false
	}
	return c.UserID, true
}

// BearerToken extracts the token from "authorization: Bearer <jwt>".
func BearerToken(md metadata.MD) string {
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}

func Auth(iss *auth.Issuer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		raw := BearerToken(md)
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		claims, err := iss.ParseToken(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}
		return next(WithClaims(ctx, claims), req)
	}
}
