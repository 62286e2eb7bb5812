package grpccas

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	blockServiceName = "rippled.storage.blocks.v1.BlockService"
	methodGetBlock   = "/" + blockServiceName + "/GetBlock"
	methodHasBlock   = "/" + blockServiceName + "/HasBlock"
)

// BlockServer is the server API of the read-only block service. Messages
// are protobuf wrapper types so no protoc step is needed.
type BlockServer interface {
	GetBlock(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	HasBlock(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// UnimplementedBlockServer can be embedded for forward compatibility.
type UnimplementedBlockServer struct{}

func (UnimplementedBlockServer) GetBlock(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBlock not implemented")
}
func (UnimplementedBlockServer) HasBlock(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method HasBlock not implemented")
}

func RegisterBlockServer(s grpc.ServiceRegistrar, srv BlockServer) {
	s.RegisterService(&Block_ServiceDesc, srv)
}

// BlockClient is the client API of the block service.
type BlockClient interface {
	GetBlock(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	HasBlock(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type blockClient struct{ cc grpc.ClientConnInterface }

func NewBlockClient(cc grpc.ClientConnInterface) BlockClient { return &blockClient{cc: cc} }

func (c *blockClient) GetBlock(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodGetBlock, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *blockClient) HasBlock(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, methodHasBlock, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Block_GetBlock_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BlockServer).GetBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetBlock}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BlockServer).GetBlock(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Block_HasBlock_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BlockServer).HasBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodHasBlock}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BlockServer).HasBlock(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Block_ServiceDesc is the grpc.ServiceDesc for the block service.
var Block_ServiceDesc = grpc.ServiceDesc{
	ServiceName: blockServiceName,
	HandlerType: (*BlockServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBlock", Handler: _Block_GetBlock_Handler},
		{MethodName: "HasBlock", Handler: _Block_HasBlock_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blocks.proto",
}
