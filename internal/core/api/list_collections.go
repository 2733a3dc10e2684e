package api

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ListCollections returns {"collections": [{"name": n, "documents": k}, ...]}
// sorted by name. The request body is ignored.
func (s *FilterService) ListCollections(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, status.Error(codes.FailedPrecondition, "no document store configured")
	}

	infos, err := s.store.Collections(ctx)
	if err != nil {
		return nil, toStatus(&errStore{err: err})
	}

	values := make([]*structpb.Value, len(infos))
	for i, info := range infos {
		values[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":      structpb.NewStringValue(info.Name),
			"documents": structpb.NewNumberValue(float64(info.Documents)),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"collections": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}, nil
}
