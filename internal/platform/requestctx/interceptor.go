package requestctx

import (
	"context"
	"strings"

	"github.com/louisbranch/homechain/internal/platform/id"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	// RequestIDHeader carries the request correlation id in both directions.
	RequestIDHeader = "x-homechain-request-id"
	// ActorTypeHeader names the role of the submitting participant.
	ActorTypeHeader = "x-homechain-actor-type"
	// ActorIDHeader names the submitting participant.
	ActorIDHeader = "x-homechain-actor-id"
	// LocaleHeader selects the language of error messages.
	LocaleHeader = "x-homechain-locale"
)

// IsPrintableASCII reports whether value is non-empty printable ASCII.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstMetadataValue returns the first printable ASCII value for key.
func FirstMetadataValue(md metadata.MD, key string) string {
	for _, value := range md.Get(key) {
		if IsPrintableASCII(value) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// UnaryServerInterceptor copies request metadata into context. Calls without
// a request id get a generated one, echoed back in the response header.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)

		requestID := FirstMetadataValue(md, RequestIDHeader)
		if requestID == "" {
			generated, err := idGenerator()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "generate request id: %v", err)
			}
			requestID = generated
		}
		ctx = WithRequestID(ctx, requestID)

		actor := Actor{
			Type: FirstMetadataValue(md, ActorTypeHeader),
			ID:   FirstMetadataValue(md, ActorIDHeader),
		}
		if actor.Type != "" || actor.ID != "" {
			ctx = WithActor(ctx, actor)
		}
		if locale := FirstMetadataValue(md, LocaleHeader); locale != "" {
			ctx = WithLocale(ctx, locale)
		}

		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}

// OutgoingContext attaches actor and locale headers to a client call.
func OutgoingContext(ctx context.Context, actor Actor, locale string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	pairs := make([]string, 0, 6)
	if actor.Type != "" {
		pairs = append(pairs, ActorTypeHeader, actor.Type)
	}
	if actor.ID != "" {
		pairs = append(pairs, ActorIDHeader, actor.ID)
	}
	if locale != "" {
		pairs = append(pairs, LocaleHeader, locale)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		pairs = append(pairs, RequestIDHeader, requestID)
	}
	if len(pairs) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}
