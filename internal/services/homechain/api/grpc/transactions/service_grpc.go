package transactions

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name, also used for health.
const ServiceName = "homechain.v1.TransactionService"

const (
	SubmitMethod      = "/" + ServiceName + "/Submit"
	GetPropertyMethod = "/" + ServiceName + "/GetProperty"
	GetPersonMethod   = "/" + ServiceName + "/GetPerson"
	ListEventsMethod  = "/" + ServiceName + "/ListEvents"
)

// TransactionServiceServer is the server API for the transaction service.
type TransactionServiceServer interface {
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProperty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPerson(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedTransactionServiceServer returns Unimplemented for every method.
type UnimplementedTransactionServiceServer struct{}

func (UnimplementedTransactionServiceServer) Submit(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Submit not implemented")
}

func (UnimplementedTransactionServiceServer) GetProperty(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProperty not implemented")
}

func (UnimplementedTransactionServiceServer) GetPerson(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPerson not implemented")
}

func (UnimplementedTransactionServiceServer) ListEvents(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListEvents not implemented")
}

// RegisterTransactionServiceServer registers srv on s.
func RegisterTransactionServiceServer(s grpc.ServiceRegistrar, srv TransactionServiceServer) {
	s.RegisterService(&TransactionServiceDesc, srv)
}

func unaryHandler(
	fullMethod string,
	call func(TransactionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(TransactionServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// TransactionServiceDesc describes the transaction service for grpc.Server.
var TransactionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TransactionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: unaryHandler(SubmitMethod, TransactionServiceServer.Submit)},
		{MethodName: "GetProperty", Handler: unaryHandler(GetPropertyMethod, TransactionServiceServer.GetProperty)},
		{MethodName: "GetPerson", Handler: unaryHandler(GetPersonMethod, TransactionServiceServer.GetPerson)},
		{MethodName: "ListEvents", Handler: unaryHandler(ListEventsMethod, TransactionServiceServer.ListEvents)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "homechain/v1/transactions.proto",
}

// Client calls the transaction service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Submit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SubmitMethod, in, opts...)
}

func (c *Client) GetProperty(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetPropertyMethod, in, opts...)
}

func (c *Client) GetPerson(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetPersonMethod, in, opts...)
}

func (c *Client) ListEvents(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListEventsMethod, in, opts...)
}
