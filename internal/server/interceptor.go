package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/kattabharath12/tax-1040/internal/common"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	UserID(header string) (uuid.UUID, error)
}

// AuthInterceptor authenticates every call except health checks and stores
// the requester on the context.
func AuthInterceptor(v TokenVerifier, logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
			return handler(ctx, req)
		}
		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				header = vals[0]
			}
		}
		userID, err := v.UserID(header)
		if err != nil {
			logger.Warn("grpc.auth.rejected", "method", info.FullMethod, "err", err)
			return nil, toStatus(common.AuthorizationError("invalid or missing bearer token"))
		}
		return handler(common.WithUserID(ctx, userID.String()), req)
	}
}

// LoggingInterceptor tags each call with a request id and logs its outcome.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqID := uuid.NewString()
		resp, err := handler(common.WithRequestID(ctx, reqID), req)
		logger.Info("grpc.call",
			"method", info.FullMethod,
			"req_id", reqID,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
