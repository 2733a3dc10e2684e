package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// FilterServiceClient is the client API for FilterService.
type FilterServiceClient interface {
	Filter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListCollections(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type filterServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewFilterServiceClient returns a client calling FilterService over cc.
func NewFilterServiceClient(cc grpc.ClientConnInterface) FilterServiceClient {
	return &filterServiceClient{cc: cc}
}

func (c *filterServiceClient) Filter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FilterService_Filter_FullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *filterServiceClient) ListCollections(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FilterService_ListCollections_FullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
