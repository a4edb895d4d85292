package transactions

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/homechain/internal/platform/errors"
	"github.com/louisbranch/homechain/internal/platform/ratelimit"
	"github.com/louisbranch/homechain/internal/platform/requestctx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
)

// RateLimitInterceptor rejects calls once the caller's bucket is empty.
// Callers are keyed by actor id, falling back to the peer address. It must
// run after requestctx.UnaryServerInterceptor.
func RateLimitInterceptor(limiter *ratelimit.MapLimiter, clock func() time.Time) grpc.UnaryServerInterceptor {
	if clock == nil {
		clock = time.Now
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if limiter == nil {
			return handler(ctx, req)
		}
		if !limiter.Allow(callerKey(ctx), clock()) {
			return nil, toStatus(ctx, apperrors.WithMetadata(apperrors.CodeRateLimited, "rate limited", map[string]string{
				"method": info.FullMethod,
			}))
		}
		return handler(ctx, req)
	}
}

func callerKey(ctx context.Context) string {
	if actor, ok := requestctx.ActorFromContext(ctx); ok && actor.ID != "" {
		return "actor:" + actor.ID
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return "peer:" + p.Addr.String()
	}
	return ""
}
