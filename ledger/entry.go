package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var (
	ErrMalformedEntry = errors.New("ledger: malformed entry encoding")
	ErrReservedField  = errors.New("ledger: reserved field in entry")
)

// canonicalJSON sorts map keys so equal field sets always encode to equal
// bytes.
var canonicalJSON = jsoniter.Config{
	SortMapKeys:            true,
	EscapeHTML:             false,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// Reserved field names. They are derived from the entry and its key when
// rendering and may not appear in Fields.
const (
	FieldLedgerEntryType = "LedgerEntryType"
	FieldIndex           = "index"
)

// Entry is a ledger object: a type tag plus its named fields.
type Entry struct {
	Type   EntryType
	Fields map[string]any
}

// Marshal returns the canonical binary form of the entry: the 2-byte
// big-endian type code followed by the fields as sorted-key JSON.
func (e *Entry) Marshal() ([]byte, error) {
	if e == nil {
		return nil, ErrMalformedEntry
	}
	if _, ok := e.Fields[FieldLedgerEntryType]; ok {
		return nil, fmt.Errorf("%w: %s", ErrReservedField, FieldLedgerEntryType)
	}
	if _, ok := e.Fields[FieldIndex]; ok {
		return nil, fmt.Errorf("%w: %s", ErrReservedField, FieldIndex)
	}
	fields := e.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	body, err := canonicalJSON.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode %s fields: %w", e.Type, err)
	}
	out := make([]byte, 2, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(e.Type))
	return append(out, body...), nil
}

// Unmarshal decodes bytes produced by Entry.Marshal.
func Unmarshal(b []byte) (*Entry, error) {
	// type code plus at least "{}"
	if len(b) < 4 {
		return nil, ErrMalformedEntry
	}
	e := &Entry{Type: EntryType(binary.BigEndian.Uint16(b))}
	if err := canonicalJSON.Unmarshal(b[2:], &e.Fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	if e.Fields == nil {
		return nil, ErrMalformedEntry
	}
	return e, nil
}

// JSON returns the structured representation of the entry stored under key.
func (e *Entry) JSON(key Key) map[string]any {
	out := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		out[k] = v
	}
	out[FieldLedgerEntryType] = e.Type.String()
	out[FieldIndex] = key.String()
	return out
}
