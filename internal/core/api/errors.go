package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/accumate/docfilter/internal/filter"
	"github.com/accumate/docfilter/internal/types"
)

// Error mapping:
//   malformed request, spec or operator -> INVALID_ARGUMENT
//   evaluation failures on the data      -> FAILED_PRECONDITION
//   store failures                        -> UNAVAILABLE
//   context expiry                        -> DEADLINE_EXCEEDED / CANCELED
// Auth errors are mapped in the auth interceptor.

// errStore marks failures reading the document store.
type errStore struct{ err error }

func (e *errStore) Error() string { return "store error: " + e.err.Error() }
func (e *errStore) Unwrap() error { return e.err }

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(statusCode(err), err.Error())
}

func statusCode(err error) codes.Code {
	var storeErr *errStore
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, types.ErrMalformedFilterGroup),
		errors.Is(err, types.ErrUnknownOperator),
		errors.Is(err, types.ErrInvalidCollection),
		errors.Is(err, types.ErrTooManyCollections),
		errors.Is(err, types.ErrBatchTooLarge),
		errors.Is(err, types.ErrNotADocument),
		errors.Is(err, types.ErrDocumentTooLarge),
		errors.Is(err, types.ErrUnsupportedValue),
		errors.Is(err, errBadRequest):
		return codes.InvalidArgument
	case errors.Is(err, types.ErrFieldNotFound),
		errors.Is(err, types.ErrTypeMismatch),
		errors.Is(err, types.ErrPredicateFault):
		return codes.FailedPrecondition
	case errors.As(err, &storeErr):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// errorKind names err for audit records.
func errorKind(err error) string {
	if err == nil {
		return ""
	}
	var fe *filter.Error
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	var storeErr *errStore
	switch {
	case errors.As(err, &storeErr):
		return "store"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "context"
	case statusCode(err) == codes.InvalidArgument:
		return "invalid_request"
	default:
		return "internal"
	}
}
