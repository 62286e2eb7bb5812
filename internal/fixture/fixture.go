// Package fixture reads ledger fixtures: JSON documents listing ledgers and
// the entries stored in each.
//
//	{"ledgers": [{"seq": 5, "closed": true, "validated": true,
//	  "entries": [{"index": "<64 hex>", "type": "AccountRoot", "fields": {...}}]}]}
//
// An entry without an index is keyed by its Account field when it is an
// AccountRoot; every other entry needs an explicit index.
package fixture

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/kennyzlei/rippled/addresscodec"
	"github.com/kennyzlei/rippled/keylet"
	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage/memory"
)

var json = jsoniter.Config{UseNumber: true}.Froze()

type File struct {
	Ledgers []Ledger `json:"ledgers"`
}

type Ledger struct {
	Seq        uint32  `json:"seq"`
	ParentHash string  `json:"parent_hash,omitempty"`
	Closed     bool    `json:"closed"`
	Validated  bool    `json:"validated"`
	Entries    []Entry `json:"entries"`
}

type Entry struct {
	Index  string         `json:"index,omitempty"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields"`
}

// Decoded is an entry with its key resolved.
type Decoded struct {
	Key   ledger.Key
	Entry *ledger.Entry
}

func Read(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("fixture: decode: %w", err)
	}
	if len(f.Ledgers) == 0 {
		return nil, fmt.Errorf("fixture: no ledgers")
	}
	return &f, nil
}

func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Read(fh)
}

// Header returns the snapshot header described by l. The hash is left for
// the store to derive.
func (l Ledger) Header() (ledger.Header, error) {
	h := ledger.Header{Seq: l.Seq, Closed: l.Closed, Validated: l.Validated}
	if l.Seq == 0 {
		return h, fmt.Errorf("fixture: ledger seq must be non-zero")
	}
	if l.ParentHash != "" {
		p, ok := ledger.ParseKey(l.ParentHash)
		if !ok {
			return h, fmt.Errorf("fixture: ledger %d: malformed parent_hash", l.Seq)
		}
		h.ParentHash = p
	}
	return h, nil
}

// Decode resolves the entries of l.
func (l Ledger) Decode() ([]Decoded, error) {
	out := make([]Decoded, 0, len(l.Entries))
	for i, e := range l.Entries {
		d, err := e.decode()
		if err != nil {
			return nil, fmt.Errorf("fixture: ledger %d entry %d: %w", l.Seq, i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (e Entry) decode() (Decoded, error) {
	t, ok := ledger.ParseEntryType(e.Type)
	if !ok {
		return Decoded{}, fmt.Errorf("unknown type %q", e.Type)
	}
	fields := e.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	d := Decoded{Entry: &ledger.Entry{Type: t, Fields: fields}}
	switch {
	case e.Index != "":
		k, ok := ledger.ParseKey(e.Index)
		if !ok {
			return Decoded{}, fmt.Errorf("malformed index %q", e.Index)
		}
		d.Key = k
	case t == ledger.TypeAccountRoot:
		acct, _ := fields["Account"].(string)
		id, err := addresscodec.DecodeAccountID(acct)
		if err != nil {
			return Decoded{}, fmt.Errorf("Account: %w", err)
		}
		d.Key = keylet.Account(id)
	default:
		return Decoded{}, fmt.Errorf("%s entry needs an index", e.Type)
	}
	return d, nil
}

// Memory loads every ledger of f into a fresh in-memory source.
func (f *File) Memory() (*memory.Source, error) {
	src := memory.NewSource()
	for _, l := range f.Ledgers {
		h, err := l.Header()
		if err != nil {
			return nil, err
		}
		entries, err := l.Decode()
		if err != nil {
			return nil, err
		}
		ml := memory.NewLedger(h)
		for _, d := range entries {
			if err := ml.Put(d.Key, d.Entry); err != nil {
				return nil, fmt.Errorf("fixture: ledger %d: %w", l.Seq, err)
			}
		}
		if err := src.Add(ml); err != nil {
			return nil, err
		}
	}
	return src, nil
}
