// Package grpcapi serves raw ledger objects by key over gRPC.
//
// Unlike the JSON-RPC ledger_entry method, the caller supplies the 32-byte
// key directly; there is no request classification and no type guard.
package grpcapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kennyzlei/rippled/ledger"
)

// LedgerSpecifier names the ledger to read: at most one of Sequence, Hash
// and Shortcut is set. The zero value is the current ledger.
type LedgerSpecifier struct {
	Sequence uint32
	Hash     []byte
	Shortcut string
}

// Request is the GetLedgerEntry request:
//
//	{"key": "<base64 key>", "ledger": {"sequence": 5} | {"hash": "<base64>"} | {"shortcut": "validated"}}
type Request struct {
	Key    []byte
	Ledger LedgerSpecifier
}

// Response is the GetLedgerEntry response:
//
//	{"ledger_object": {"data": "<base64>", "key": "<base64>"}, "ledger": <echoed specifier>}
type Response struct {
	Data   []byte
	Key    []byte
	Ledger LedgerSpecifier
}

var errBadLedger = errors.New("malformed ledger specifier")

func (l LedgerSpecifier) ref() (ledger.Ref, error) {
	set := 0
	if l.Sequence != 0 {
		set++
	}
	if l.Hash != nil {
		set++
	}
	if l.Shortcut != "" {
		set++
	}
	if set > 1 {
		return ledger.Ref{}, fmt.Errorf("%w: more than one of sequence, hash, shortcut", errBadLedger)
	}
	switch {
	case l.Hash != nil:
		k, ok := ledger.KeyFromBytes(l.Hash)
		if !ok || k.IsZero() {
			return ledger.Ref{}, fmt.Errorf("%w: hash must be 32 bytes", errBadLedger)
		}
		return ledger.Ref{Hash: k}, nil
	case l.Sequence != 0:
		return ledger.Ref{Seq: l.Sequence}, nil
	case l.Shortcut != "":
		sc, ok := ledger.ParseShortcut(l.Shortcut)
		if !ok {
			return ledger.Ref{}, fmt.Errorf("%w: unknown shortcut %q", errBadLedger, l.Shortcut)
		}
		return ledger.Ref{Shortcut: sc}, nil
	}
	return ledger.Ref{Shortcut: ledger.ShortcutCurrent}, nil
}

func (l LedgerSpecifier) toValue() *structpb.Value {
	fields := map[string]*structpb.Value{}
	switch {
	case l.Hash != nil:
		fields["hash"] = structpb.NewStringValue(base64.StdEncoding.EncodeToString(l.Hash))
	case l.Sequence != 0:
		fields["sequence"] = structpb.NewNumberValue(float64(l.Sequence))
	case l.Shortcut != "":
		fields["shortcut"] = structpb.NewStringValue(l.Shortcut)
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: fields})
}

func ledgerFromValue(v *structpb.Value) (LedgerSpecifier, error) {
	var l LedgerSpecifier
	if v == nil {
		return l, nil
	}
	s := v.GetStructValue()
	if s == nil {
		return l, fmt.Errorf("%w: ledger must be an object", errBadLedger)
	}
	for name, f := range s.GetFields() {
		switch name {
		case "sequence":
			n, ok := f.GetKind().(*structpb.Value_NumberValue)
			if !ok || n.NumberValue <= 0 || n.NumberValue > math.MaxUint32 || n.NumberValue != math.Trunc(n.NumberValue) {
				return l, fmt.Errorf("%w: sequence must be a positive 32-bit integer", errBadLedger)
			}
			l.Sequence = uint32(n.NumberValue)
		case "hash":
			b, err := base64.StdEncoding.DecodeString(f.GetStringValue())
			if err != nil {
				return l, fmt.Errorf("%w: hash is not base64", errBadLedger)
			}
			if b == nil {
				b = []byte{}
			}
			l.Hash = b
		case "shortcut":
			l.Shortcut = f.GetStringValue()
			if l.Shortcut == "" {
				return l, fmt.Errorf("%w: shortcut must be a non-empty string", errBadLedger)
			}
		default:
			return l, fmt.Errorf("%w: unknown field %q", errBadLedger, name)
		}
	}
	return l, nil
}

// Struct encodes the request.
func (r *Request) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"key":    structpb.NewStringValue(base64.StdEncoding.EncodeToString(r.Key)),
		"ledger": r.Ledger.toValue(),
	}}
}

// decodeRequest splits the ledger specifier from the key. A key that is not
// base64 decodes to nil so it is reported as malformed after the ledger is
// resolved.
func decodeRequest(s *structpb.Struct) (*Request, error) {
	req := &Request{}
	l, err := ledgerFromValue(s.GetFields()["ledger"])
	if err != nil {
		return nil, err
	}
	req.Ledger = l
	if kv, ok := s.GetFields()["key"]; ok {
		if b, err := base64.StdEncoding.DecodeString(kv.GetStringValue()); err == nil {
			req.Key = b
		}
	}
	return req, nil
}

func (r *Response) Struct() *structpb.Struct {
	obj := &structpb.Struct{Fields: map[string]*structpb.Value{
		"data": structpb.NewStringValue(base64.StdEncoding.EncodeToString(r.Data)),
		"key":  structpb.NewStringValue(base64.StdEncoding.EncodeToString(r.Key)),
	}}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"ledger_object": structpb.NewStructValue(obj),
		"ledger":        r.Ledger.toValue(),
	}}
}

func decodeResponse(s *structpb.Struct) (*Response, error) {
	obj := s.GetFields()["ledger_object"].GetStructValue()
	if obj == nil {
		return nil, errors.New("grpcapi: response has no ledger_object")
	}
	data, err := base64.StdEncoding.DecodeString(obj.GetFields()["data"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("grpcapi: response data: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(obj.GetFields()["key"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("grpcapi: response key: %w", err)
	}
	l, err := ledgerFromValue(s.GetFields()["ledger"])
	if err != nil {
		return nil, fmt.Errorf("grpcapi: response ledger: %w", err)
	}
	return &Response{Data: data, Key: key, Ledger: l}, nil
}
