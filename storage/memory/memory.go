// Package memory keeps sealed ledger snapshots in process memory.
package memory

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/minio/sha256-simd"

	"github.com/kennyzlei/rippled/ledger"
)

// Ledger is one snapshot. Entries are stored in their canonical binary form
// so every Read decodes a private copy.
type Ledger struct {
	header  ledger.Header
	entries map[ledger.Key][]byte
	sealed  bool
}

var _ ledger.Snapshot = (*Ledger)(nil)

// NewLedger starts an unsealed snapshot with the given header. A zero
// header hash is filled in by Seal.
func NewLedger(h ledger.Header) *Ledger {
	return &Ledger{header: h, entries: map[ledger.Key][]byte{}}
}

// Put stores e under key. It fails once the ledger is sealed.
func (l *Ledger) Put(key ledger.Key, e *ledger.Entry) error {
	if l.sealed {
		return fmt.Errorf("memory: ledger %d is sealed", l.header.Seq)
	}
	if key.IsZero() {
		return fmt.Errorf("memory: zero key")
	}
	b, err := e.Marshal()
	if err != nil {
		return err
	}
	l.entries[key] = b
	return nil
}

// Seal freezes the ledger and derives its hash when none was given.
func (l *Ledger) Seal() {
	if l.sealed {
		return
	}
	l.sealed = true
	if l.header.Hash.IsZero() {
		l.header.Hash = l.digest()
	}
}

// digest hashes the sequence, parent and every entry in key order.
func (l *Ledger) digest() ledger.Key {
	keys := make([]ledger.Key, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	h := sha256.New()
	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], l.header.Seq)
	h.Write(seq[:])
	h.Write(l.header.ParentHash[:])
	for _, k := range keys {
		h.Write(k[:])
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(l.entries[k])))
		h.Write(n[:])
		h.Write(l.entries[k])
	}
	var out ledger.Key
	copy(out[:], h.Sum(nil))
	return out
}

func (l *Ledger) Header() ledger.Header { return l.header }

func (l *Ledger) Read(ctx context.Context, key ledger.Key) (*ledger.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := l.entries[key]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}
	return ledger.Unmarshal(b)
}

// Len reports the number of stored entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Source serves sealed ledgers. It is safe for concurrent use.
type Source struct {
	mu      sync.RWMutex
	ledgers map[uint32]*Ledger
}

var _ ledger.Source = (*Source)(nil)

func NewSource() *Source {
	return &Source{ledgers: map[uint32]*Ledger{}}
}

// Add seals l and makes it available. Sequences must be unique.
func (s *Source) Add(l *Ledger) error {
	if l.header.Seq == 0 {
		return fmt.Errorf("memory: ledger sequence must be non-zero")
	}
	l.Seal()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledgers[l.header.Seq]; ok {
		return fmt.Errorf("memory: ledger %d already added", l.header.Seq)
	}
	s.ledgers[l.header.Seq] = l
	return nil
}

func (s *Source) Snapshot(ctx context.Context, ref ledger.Ref) (ledger.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	headers := make([]ledger.Header, 0, len(s.ledgers))
	for _, l := range s.ledgers {
		headers = append(headers, l.header)
	}
	h, err := ledger.Select(headers, ref)
	if err != nil {
		return nil, err
	}
	return s.ledgers[h.Seq], nil
}

// Headers lists every ledger in ascending sequence order.
func (s *Source) Headers() []ledger.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Header, 0, len(s.ledgers))
	for _, l := range s.ledgers {
		out = append(out, l.header)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
