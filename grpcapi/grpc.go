package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName          = "rippled.ledgerentry.v1.LedgerEntryService"
	methodGetLedgerEntry = "/" + serviceName + "/GetLedgerEntry"
)

// LedgerEntryServer is the server API of the ledger entry gRPC service.
//
// Messages are google.protobuf.Struct values so the package needs no protoc
// step; Request and Response describe their layout.
type LedgerEntryServer interface {
	GetLedgerEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedLedgerEntryServer can be embedded for forward compatibility.
type UnimplementedLedgerEntryServer struct{}

func (UnimplementedLedgerEntryServer) GetLedgerEntry(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLedgerEntry not implemented")
}

func RegisterLedgerEntryServer(s grpc.ServiceRegistrar, srv LedgerEntryServer) {
	s.RegisterService(&LedgerEntry_ServiceDesc, srv)
}

// LedgerEntryClient is the client API of the ledger entry gRPC service.
type LedgerEntryClient interface {
	GetLedgerEntry(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type ledgerEntryClient struct{ cc grpc.ClientConnInterface }

func NewLedgerEntryClient(cc grpc.ClientConnInterface) LedgerEntryClient {
	return &ledgerEntryClient{cc: cc}
}

func (c *ledgerEntryClient) GetLedgerEntry(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetLedgerEntry, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _LedgerEntry_GetLedgerEntry_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerEntryServer).GetLedgerEntry(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetLedgerEntry}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerEntryServer).GetLedgerEntry(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// LedgerEntry_ServiceDesc is the grpc.ServiceDesc for the ledger entry
// service.
var LedgerEntry_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LedgerEntryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetLedgerEntry", Handler: _LedgerEntry_GetLedgerEntry_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledgerentry.proto",
}
