package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "tax1040.v1.Tax1040Service"

// Tax1040Handler is the server side of tax1040.v1.Tax1040Service. Every
// method takes and returns a google.protobuf.Struct.
type Tax1040Handler interface {
	ProcessDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReprocessDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ProcessReturn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordIncome(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BuildSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(Tax1040Handler, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Tax1040Handler), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(Tax1040Handler), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Tax1040ServiceDesc describes tax1040.v1.Tax1040Service for grpc.Server.RegisterService.
var Tax1040ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Tax1040Handler)(nil),
	Methods: []grpc.MethodDesc{
		unary("ProcessDocument", Tax1040Handler.ProcessDocument),
		unary("ReprocessDocument", Tax1040Handler.ReprocessDocument),
		unary("ProcessReturn", Tax1040Handler.ProcessReturn),
		unary("RecordIncome", Tax1040Handler.RecordIncome),
		unary("BuildSummary", Tax1040Handler.BuildSummary),
		unary("ValidateSummary", Tax1040Handler.ValidateSummary),
		unary("ExportSummary", Tax1040Handler.ExportSummary),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tax1040/v1/tax1040.proto",
}

// RegisterTax1040Server registers h on s.
func RegisterTax1040Server(s grpc.ServiceRegistrar, h Tax1040Handler) {
	s.RegisterService(&Tax1040ServiceDesc, h)
}

// Tax1040Client is a thin client for the same service.
type Tax1040Client struct {
	cc grpc.ClientConnInterface
}

func NewTax1040Client(cc grpc.ClientConnInterface) *Tax1040Client {
	return &Tax1040Client{cc: cc}
}

// Call invokes method with req and returns the response struct.
func (c *Tax1040Client) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
