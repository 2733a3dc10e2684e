package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/accumate/docfilter/internal/core/auth"
	"github.com/accumate/docfilter/internal/filter"
	"github.com/accumate/docfilter/internal/types"
)

// Request fields.
const (
	fieldDocuments   = "documents"
	fieldCollections = "collections"
	fieldFilters     = "filters"
	fieldGroupBy     = "group_by"
)

var errBadRequest = errors.New("bad request")

// filterRequest is a decoded Filter call.
type filterRequest struct {
	documents   []types.Document
	collections []string
	spec        *filter.FilterSpec
	groupBy     string
}

// Filter runs a filter spec over inline documents and stored collections.
// Inline documents come first, followed by each collection in request
// order. The whole request fails on the first evaluation error.
func (s *FilterService) Filter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	record := AuditRecord{
		RequestID: RequestIDFromContext(ctx),
		ClientID:  auth.ClientIDFromContext(ctx),
	}

	resp, err := s.filter(ctx, req, &record)

	record.DurationMs = time.Since(start).Milliseconds()
	record.Error = errorKind(err)
	s.audit.Write(record)

	if err != nil {
		s.logger.Debug("Filter failed",
			zap.String("request_id", string(record.RequestID)),
			zap.String("error_kind", record.Error),
			zap.Error(err))
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *FilterService) filter(ctx context.Context, req *structpb.Struct, record *AuditRecord) (*structpb.Struct, error) {
	fr, err := s.parseFilterRequest(req)
	if err != nil {
		return nil, err
	}
	record.Collections = fr.collections
	record.GroupBy = fr.groupBy

	docs := fr.documents
	if len(fr.collections) > 0 {
		stored, err := s.loadCollections(ctx, fr.collections)
		if err != nil {
			return nil, err
		}
		docs = append(docs, stored...)
	}
	record.Documents = len(docs)

	if limit := s.cfg.MaxBatchSize; limit > 0 && len(docs) > limit {
		return nil, fmt.Errorf("%w: %d documents, maximum is %d", types.ErrBatchTooLarge, len(docs), limit)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.engine.Filter(docs, fr.spec, fr.groupBy)
	if err != nil {
		return nil, err
	}
	record.Survivors = result.Count()
	record.Groups = result.Groups.Len()

	return buildFilterResponse(result)
}

// parseFilterRequest decodes and validates a Filter request body.
func (s *FilterService) parseFilterRequest(req *structpb.Struct) (*filterRequest, error) {
	fr := &filterRequest{spec: &filter.FilterSpec{}}

	fields := req.GetFields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := fields[name]
		switch name {
		case fieldDocuments:
			docs, err := parseDocuments(v)
			if err != nil {
				return nil, err
			}
			fr.documents = docs

		case fieldCollections:
			collections, err := parseCollections(v)
			if err != nil {
				return nil, err
			}
			fr.collections = collections

		case fieldFilters:
			sv, ok := v.GetKind().(*structpb.Value_StructValue)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be an object", errBadRequest, fieldFilters)
			}
			raw, err := mappingFromStruct(sv.StructValue)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", errBadRequest, fieldFilters, err)
			}
			spec, err := filter.ParseSpec(raw, s.registry)
			if err != nil {
				return nil, err
			}
			fr.spec = spec

		case fieldGroupBy:
			sv, ok := v.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", errBadRequest, fieldGroupBy)
			}
			fr.groupBy = sv.StringValue

		default:
			return nil, fmt.Errorf("%w: unknown field %q", errBadRequest, name)
		}
	}

	if len(fr.collections) > 0 && s.store == nil {
		return nil, fmt.Errorf("%w: no document store configured", errBadRequest)
	}
	if limit := s.cfg.MaxBatchSize; limit > 0 && len(fr.documents) > limit {
		return nil, fmt.Errorf("%w: %d documents, maximum is %d", types.ErrBatchTooLarge, len(fr.documents), limit)
	}
	return fr, nil
}

func parseDocuments(v *structpb.Value) ([]types.Document, error) {
	lv, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list", errBadRequest, fieldDocuments)
	}
	values := lv.ListValue.GetValues()
	if len(values) > types.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d documents", types.ErrBatchTooLarge, len(values))
	}

	docs := make([]types.Document, len(values))
	for i, elem := range values {
		root, err := documentFromProto(elem)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs[i] = types.NewDocument(root)
	}
	return docs, nil
}

func parseCollections(v *structpb.Value) ([]string, error) {
	lv, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list", errBadRequest, fieldCollections)
	}
	values := lv.ListValue.GetValues()
	if len(values) > types.MaxCollectionsPerRequest {
		return nil, fmt.Errorf("%w: %d named, maximum is %d", types.ErrTooManyCollections, len(values), types.MaxCollectionsPerRequest)
	}

	names := make([]string, len(values))
	for i, elem := range values {
		sv, ok := elem.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be a string", errBadRequest, fieldCollections, i)
		}
		if err := types.ValidateCollection(sv.StringValue); err != nil {
			return nil, err
		}
		names[i] = sv.StringValue
	}
	return names, nil
}

// loadCollections reads the named collections concurrently and concatenates
// them in request order.
func (s *FilterService) loadCollections(ctx context.Context, names []string) ([]types.Document, error) {
	loaded := make([][]types.Document, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(types.MaxCollectionsPerRequest)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			docs, err := s.store.List(gctx, name)
			if err != nil {
				if errors.Is(err, types.ErrInvalidCollection) {
					return err
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &errStore{err: fmt.Errorf("collection %s: %w", name, err)}
			}
			loaded[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, docs := range loaded {
		total += len(docs)
	}
	out := make([]types.Document, 0, total)
	for _, docs := range loaded {
		out = append(out, docs...)
	}
	return out, nil
}

// buildFilterResponse renders {"count": n, "results": [...]} or, when
// grouped, {"count": n, "group_by": f, "groups": [{"key": k, "documents": [...]}]}.
func buildFilterResponse(result *filter.Result) (*structpb.Struct, error) {
	resp := &structpb.Struct{Fields: map[string]*structpb.Value{
		"count": structpb.NewNumberValue(float64(result.Count())),
	}}

	if result.Groups == nil {
		results, err := documentsToProto(result.Survivors)
		if err != nil {
			return nil, err
		}
		resp.Fields["results"] = results
		return resp, nil
	}

	groups := make([]*structpb.Value, 0, result.Groups.Len())
	for _, b := range result.Groups.Buckets {
		key, err := valueToProto(b.Key)
		if err != nil {
			return nil, fmt.Errorf("group key: %w", err)
		}
		docs, err := documentsToProto(b.Documents)
		if err != nil {
			return nil, err
		}
		groups = append(groups, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"key":       key,
			"documents": docs,
		}}))
	}
	resp.Fields["group_by"] = structpb.NewStringValue(result.Groups.Field)
	resp.Fields["groups"] = structpb.NewListValue(&structpb.ListValue{Values: groups})
	return resp, nil
}
