package api

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/accumate/docfilter/internal/codec"
	"github.com/accumate/docfilter/internal/types"
)

// Struct fields are a Go map, so key order is not carried on the wire.
// FromNative sorts keys, giving every decoded mapping a stable order.
// Documents that need their own key order travel as JSON text instead.

// documentFromProto decodes one inline document. A string value holds the
// document as JSON text and keeps its key order, so first-match lookup
// sees the same document the store and the CLI would. A struct value is
// accepted as well; its keys, at every level, come back sorted.
func documentFromProto(v *structpb.Value) (types.Mapping, error) {
	if sv, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		root, err := codec.DecodeDocument([]byte(sv.StringValue))
		if err != nil {
			if errors.Is(err, types.ErrNotADocument) || errors.Is(err, types.ErrDocumentTooLarge) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
		}
		return root, nil
	}

	val, err := valueFromProto(v)
	if err != nil {
		return nil, err
	}
	root, ok := val.(types.Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", types.ErrNotADocument, val.Kind())
	}
	return root, nil
}

// valueFromProto converts a protobuf value into a document value.
func valueFromProto(v *structpb.Value) (types.Value, error) {
	if v == nil {
		return types.Null{}, nil
	}
	return types.FromNative(v.AsInterface())
}

// mappingFromStruct converts a protobuf struct into a document mapping.
func mappingFromStruct(s *structpb.Struct) (types.Mapping, error) {
	if s == nil {
		return types.Mapping{}, nil
	}
	v, err := types.FromNative(s.AsMap())
	if err != nil {
		return nil, err
	}
	return v.(types.Mapping), nil
}

// valueToProto converts a document value into a protobuf value.
func valueToProto(v types.Value) (*structpb.Value, error) {
	pv, err := structpb.NewValue(types.ToNative(v))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUnsupportedValue, err)
	}
	return pv, nil
}

// documentsToProto renders document roots as a protobuf list.
func documentsToProto(docs []types.Document) (*structpb.Value, error) {
	values := make([]*structpb.Value, len(docs))
	for i, d := range docs {
		pv, err := valueToProto(d.Root)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		values[i] = pv
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values}), nil
}
