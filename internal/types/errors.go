package types

import "errors"

// Sentinel errors for docfilter operations. Structured errors raised by the
// filter engine unwrap to one of the first five so callers can branch with
// errors.Is.
var (
	// ErrFieldNotFound indicates a field could not be located anywhere in a document.
	ErrFieldNotFound = errors.New("field not found")

	// ErrTypeMismatch indicates an ordering comparison between incomparable value kinds.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnknownOperator indicates an operator tag that is neither built in nor registered.
	ErrUnknownOperator = errors.New("no such operation")

	// ErrPredicateFault indicates a custom predicate failed while evaluating.
	ErrPredicateFault = errors.New("predicate fault")

	// ErrMalformedFilterGroup indicates a filter group that does not have the required shape.
	ErrMalformedFilterGroup = errors.New("malformed filter group")

	// ErrUnsupportedValue indicates a Go value that has no document representation.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrNotADocument indicates a decoded value whose root is not a mapping.
	ErrNotADocument = errors.New("document root must be a mapping")

	// ErrDocumentTooLarge indicates a document body exceeds MaxDocumentSize.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")

	// ErrBatchTooLarge indicates a request exceeds the configured batch size.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)

// Store errors.
var (
	// ErrInvalidCollection indicates an empty or malformed collection name.
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrTooManyCollections indicates a request naming more than MaxCollectionsPerRequest collections.
	ErrTooManyCollections = errors.New("too many collections")
)
