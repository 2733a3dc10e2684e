// internal/codec/json.go
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/accumate/docfilter/internal/types"
)

/*
 * Order-preserving JSON codec for types.Value.
 *
 * Field lookup is first-match in entry order, so decoding must keep object
 * keys in document order. Decoding walks the json.Decoder token stream
 * (UseNumber, so no float round trip before the value is built) instead of
 * unmarshalling into map[string]any.
 *
 * Duplicate keys: the last value wins but keeps the first key's position,
 * matching encoding/json's last-wins rule.
 *
 * Limits: a single document larger than types.MaxDocumentSize and batches
 * with more than types.MaxBatchSize documents are rejected.
 */

// DecodeJSON decodes exactly one JSON value.
func DecodeJSON(data []byte) (types.Value, error) {
	dec := newDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if err := ensureEOF(dec); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeDocument decodes a single JSON object into a document root.
func DecodeDocument(data []byte) (types.Mapping, error) {
	if len(data) > types.MaxDocumentSize {
		return nil, fmt.Errorf("%w: %d bytes", types.ErrDocumentTooLarge, len(data))
	}
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	root, ok := v.(types.Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", types.ErrNotADocument, v.Kind())
	}
	return root, nil
}

// DecodeDocuments decodes a batch of documents. The input is either a JSON
// array of objects or a stream of whitespace-separated objects (JSON Lines).
func DecodeDocuments(data []byte) ([]types.Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []types.Document{}, nil
	}

	dec := newDecoder(bytes.NewReader(trimmed))
	if trimmed[0] == '[' {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		if err := ensureEOF(dec); err != nil {
			return nil, err
		}
		seq := v.(types.Sequence)
		if len(seq) > types.MaxBatchSize {
			return nil, fmt.Errorf("%w: %d documents", types.ErrBatchTooLarge, len(seq))
		}
		docs := make([]types.Document, 0, len(seq))
		for i, elem := range seq {
			root, ok := elem.(types.Mapping)
			if !ok {
				return nil, fmt.Errorf("document %d: %w: got %s", i, types.ErrNotADocument, elem.Kind())
			}
			docs = append(docs, types.NewDocument(root))
		}
		return docs, nil
	}

	var docs []types.Document
	for i := 0; ; i++ {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		v, err := decodeToken(dec, tok)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		root, ok := v.(types.Mapping)
		if !ok {
			return nil, fmt.Errorf("document %d: %w: got %s", i, types.ErrNotADocument, v.Kind())
		}
		if len(docs) == types.MaxBatchSize {
			return nil, fmt.Errorf("%w: more than %d documents", types.ErrBatchTooLarge, types.MaxBatchSize)
		}
		docs = append(docs, types.NewDocument(root))
	}
	return docs, nil
}

// EncodeJSON renders v as compact JSON, keeping mapping entry order.
func EncodeJSON(v types.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeDocuments renders document roots as a JSON array.
func EncodeDocuments(docs []types.Document) ([]byte, error) {
	seq := make(types.Sequence, len(docs))
	for i, d := range docs {
		seq[i] = d.Root
	}
	return EncodeJSON(seq)
}

func newDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec
}

func ensureEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level JSON value")
	}
	return nil
}

func decodeValue(dec *json.Decoder) (types.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (types.Value, error) {
	switch t := tok.(type) {
	case nil:
		return types.Null{}, nil
	case bool:
		return types.Bool(t), nil
	case string:
		return types.String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", t, err)
		}
		return types.Number(f), nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

func decodeObject(dec *json.Decoder) (types.Value, error) {
	m := types.Mapping{}
	index := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		if i, dup := index[key]; dup {
			m[i].Value = v
			continue
		}
		index[key] = len(m)
		m = append(m, types.Entry{Key: key, Value: v})
	}

	if _, err := dec.Token(); err != nil { // '}'
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *json.Decoder) (types.Value, error) {
	seq := types.Sequence{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", len(seq), err)
		}
		seq = append(seq, v)
	}
	if _, err := dec.Token(); err != nil { // ']'
		return nil, err
	}
	return seq, nil
}

func encodeValue(buf *bytes.Buffer, v types.Value) error {
	switch x := v.(type) {
	case nil, types.Null:
		buf.WriteString("null")
	case types.Bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case types.Number:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %v is not representable in JSON", types.ErrUnsupportedValue, f)
		}
		b, err := json.Marshal(f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case types.String:
		b, err := json.Marshal(string(x))
		if err != nil {
			return err
		}
		buf.Write(b)
	case types.Sequence:
		buf.WriteByte('[')
		for i, elem := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case types.Mapping:
		buf.WriteByte('{')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := encodeValue(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: %T", types.ErrUnsupportedValue, v)
	}
	return nil
}
