package types

import "github.com/google/uuid"

// RequestID identifies one filter call for logging and auditing (UUIDv7).
type RequestID string

// NewDocumentID generates a UUIDv7 document identifier.
// Time-ordered, so IDs sort roughly by creation time.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.Must(uuid.NewV7()).String())
}

// NewRequestID generates a UUIDv7 request identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRequestID() RequestID {
	return RequestID(uuid.Must(uuid.NewV7()).String())
}

// ParseDocumentID validates and converts a string to DocumentID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the store.
func ParseDocumentID(s string) (DocumentID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return DocumentID(s), nil
}
