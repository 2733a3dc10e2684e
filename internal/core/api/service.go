// Package api provides the gRPC FilterService: it decodes requests into
// documents and filter specs, loads stored collections, runs the filter
// engine and maps failures onto gRPC status codes.
//
// Inline documents may be sent as JSON text strings, which keep their key
// order, or as Struct objects, whose keys arrive sorted.
package api

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/accumate/docfilter/internal/core/config"
	"github.com/accumate/docfilter/internal/core/db"
	"github.com/accumate/docfilter/internal/filter"
	"github.com/accumate/docfilter/internal/types"
)

// Service and method names. Requests and responses are google.protobuf.Struct,
// so there is no generated code; the descriptor below is written by hand.
const (
	FilterServiceName                        = "docfilter.v1.FilterService"
	FilterService_Filter_FullMethod          = "/" + FilterServiceName + "/Filter"
	FilterService_ListCollections_FullMethod = "/" + FilterServiceName + "/ListCollections"
)

// FilterServiceServer is the server API for FilterService.
type FilterServiceServer interface {
	Filter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCollections(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// FilterService_ServiceDesc is the grpc.ServiceDesc for FilterService.
var FilterService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: FilterServiceName,
	HandlerType: (*FilterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Filter", Handler: filterHandler},
		{MethodName: "ListCollections", Handler: listCollectionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docfilter/v1/filter_service.proto",
}

// RegisterFilterServiceServer registers srv on s.
func RegisterFilterServiceServer(s grpc.ServiceRegistrar, srv FilterServiceServer) {
	s.RegisterService(&FilterService_ServiceDesc, srv)
}

func filterHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FilterServiceServer).Filter(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FilterService_Filter_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FilterServiceServer).Filter(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listCollectionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FilterServiceServer).ListCollections(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FilterService_ListCollections_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FilterServiceServer).ListCollections(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// DocumentSource supplies stored collections. Implemented by *db.DocumentStore.
type DocumentSource interface {
	List(ctx context.Context, collection string) ([]types.Document, error)
	Collections(ctx context.Context) ([]db.CollectionInfo, error)
}

// FilterService implements FilterServiceServer.
// Thin orchestration layer delegating to the filter engine and the store.
type FilterService struct {
	engine   *filter.Engine
	registry *filter.Registry
	store    DocumentSource
	audit    *AuditLog
	cfg      *config.FilterAPIConfig
	logger   *zap.Logger
}

// NewFilterService creates the service. store may be nil, in which case
// requests naming collections are rejected. The audit log is opened under
// cfg.DataDir when cfg.AuditLog is set.
func NewFilterService(engine *filter.Engine, registry *filter.Registry, store DocumentSource, cfg *config.FilterAPIConfig, logger *zap.Logger) (*FilterService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var audit *AuditLog
	if cfg.AuditLog {
		var err error
		if audit, err = NewAuditLog(cfg.DataDir, logger); err != nil {
			return nil, err
		}
	}

	return &FilterService{
		engine:   engine,
		registry: registry,
		store:    store,
		audit:    audit,
		cfg:      cfg,
		logger:   logger,
	}, nil
}
