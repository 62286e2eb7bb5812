// Package casledger seals ledger snapshots into a content-addressed block
// store.
//
// Each entry's canonical bytes are one block. A manifest block lists the
// snapshot header and every (key, CID) pair in key order; the ledger hash is
// the sha2-256 digest of the manifest block. A catalog file next to the
// blocks records the manifest CIDs of every sealed ledger.
package casledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ipfs/go-cid"
	jsoniter "github.com/json-iterator/go"

	"github.com/kennyzlei/rippled/cidutil"
	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage"
)

const manifestVersion = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrCorrupt = errors.New("casledger: corrupt snapshot")

type manifest struct {
	Version   int             `json:"version"`
	Seq       uint32          `json:"seq"`
	Parent    string          `json:"parent"`
	Closed    bool            `json:"closed"`
	Validated bool            `json:"validated"`
	Entries   []manifestEntry `json:"entries"`
}

type manifestEntry struct {
	Key string `json:"key"`
	CID string `json:"cid"`
}

type catalog struct {
	Manifests []string `json:"manifests"`
}

// Item is one entry to seal.
type Item struct {
	Key   ledger.Key
	Entry *ledger.Entry
}

// Store is a ledger.Source over a CAS and a catalog file. It is safe for
// concurrent use.
type Store struct {
	cas         storage.CAS
	catalogPath string

	mu        sync.RWMutex
	manifests map[uint32]cid.Cid
	headers   map[uint32]ledger.Header
}

var _ ledger.Source = (*Store)(nil)

// Blocks returns the block store the snapshots are read from.
func (s *Store) Blocks() storage.CAS { return s.cas }

// Open loads the catalog at catalogPath (a missing file is an empty catalog)
// and verifies every listed manifest.
func Open(ctx context.Context, cas storage.CAS, catalogPath string) (*Store, error) {
	s := &Store{
		cas:         cas,
		catalogPath: catalogPath,
		manifests:   map[uint32]cid.Cid{},
		headers:     map[uint32]ledger.Header{},
	}
	b, err := os.ReadFile(catalogPath)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var c catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("casledger: catalog %s: %w", catalogPath, err)
	}
	for _, raw := range c.Manifests {
		id, err := cid.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("casledger: catalog entry %q: %w", raw, err)
		}
		m, err := s.loadManifest(ctx, id)
		if err != nil {
			return nil, err
		}
		h, err := headerOf(id, m)
		if err != nil {
			return nil, err
		}
		s.manifests[h.Seq] = id
		s.headers[h.Seq] = h
	}
	return s, nil
}

// Seal writes items as a new snapshot and records it in the catalog.
func (s *Store) Seal(ctx context.Context, h ledger.Header, items []Item) (ledger.Header, error) {
	if h.Seq == 0 {
		return ledger.Header{}, fmt.Errorf("casledger: ledger sequence must be non-zero")
	}
	s.mu.RLock()
	_, dup := s.manifests[h.Seq]
	s.mu.RUnlock()
	if dup {
		return ledger.Header{}, fmt.Errorf("casledger: ledger %d already sealed", h.Seq)
	}

	m := manifest{
		Version:   manifestVersion,
		Seq:       h.Seq,
		Parent:    h.ParentHash.String(),
		Closed:    h.Closed,
		Validated: h.Validated,
		Entries:   make([]manifestEntry, 0, len(items)),
	}
	seen := make(map[ledger.Key]struct{}, len(items))
	for _, it := range items {
		if it.Key.IsZero() {
			return ledger.Header{}, fmt.Errorf("casledger: zero key")
		}
		if _, ok := seen[it.Key]; ok {
			return ledger.Header{}, fmt.Errorf("casledger: duplicate key %s", it.Key)
		}
		seen[it.Key] = struct{}{}
		b, err := it.Entry.Marshal()
		if err != nil {
			return ledger.Header{}, err
		}
		id, err := s.cas.Put(ctx, b)
		if err != nil {
			return ledger.Header{}, fmt.Errorf("casledger: put entry %s: %w", it.Key, err)
		}
		m.Entries = append(m.Entries, manifestEntry{Key: it.Key.String(), CID: id.String()})
	}
	sort.Slice(m.Entries, func(i, j int) bool { return m.Entries[i].Key < m.Entries[j].Key })

	body, err := json.Marshal(m)
	if err != nil {
		return ledger.Header{}, err
	}
	id, err := s.cas.Put(ctx, body)
	if err != nil {
		return ledger.Header{}, fmt.Errorf("casledger: put manifest: %w", err)
	}
	sealed, err := headerOf(id, &m)
	if err != nil {
		return ledger.Header{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.manifests[sealed.Seq]; ok {
		return ledger.Header{}, fmt.Errorf("casledger: ledger %d already sealed", sealed.Seq)
	}
	s.manifests[sealed.Seq] = id
	s.headers[sealed.Seq] = sealed
	if err := s.writeCatalogLocked(); err != nil {
		delete(s.manifests, sealed.Seq)
		delete(s.headers, sealed.Seq)
		return ledger.Header{}, err
	}
	return sealed, nil
}

// Headers lists sealed ledgers in ascending sequence order.
func (s *Store) Headers() []ledger.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Header, 0, len(s.headers))
	for _, h := range s.headers {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (s *Store) Snapshot(ctx context.Context, ref ledger.Ref) (ledger.Snapshot, error) {
	s.mu.RLock()
	headers := make([]ledger.Header, 0, len(s.headers))
	for _, h := range s.headers {
		headers = append(headers, h)
	}
	s.mu.RUnlock()

	h, err := ledger.Select(headers, ref)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	id := s.manifests[h.Seq]
	s.mu.RUnlock()

	m, err := s.loadManifest(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := &snapshot{header: h, cas: s.cas, index: make(map[ledger.Key]cid.Cid, len(m.Entries))}
	for _, e := range m.Entries {
		k, ok := ledger.ParseKey(e.Key)
		if !ok {
			return nil, fmt.Errorf("%w: manifest %s: key %q", ErrCorrupt, id, e.Key)
		}
		c, err := cid.Decode(e.CID)
		if err != nil {
			return nil, fmt.Errorf("%w: manifest %s: %v", ErrCorrupt, id, err)
		}
		snap.index[k] = c
	}
	return snap, nil
}

func (s *Store) loadManifest(ctx context.Context, id cid.Cid) (*manifest, error) {
	b, err := s.cas.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("casledger: manifest %s: %w", id, err)
	}
	var m manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %v", ErrCorrupt, id, err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("%w: manifest %s: version %d", ErrCorrupt, id, m.Version)
	}
	return &m, nil
}

func (s *Store) writeCatalogLocked() error {
	seqs := make([]uint32, 0, len(s.manifests))
	for seq := range s.manifests {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	c := catalog{Manifests: make([]string, 0, len(seqs))}
	for _, seq := range seqs {
		c.Manifests = append(c.Manifests, s.manifests[seq].String())
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.catalogPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".catalog-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.catalogPath)
}

func headerOf(id cid.Cid, m *manifest) (ledger.Header, error) {
	digest, err := cidutil.Digest(id)
	if err != nil {
		return ledger.Header{}, fmt.Errorf("%w: manifest %s: %v", ErrCorrupt, id, err)
	}
	parent, ok := ledger.ParseKey(m.Parent)
	if !ok {
		return ledger.Header{}, fmt.Errorf("%w: manifest %s: parent %q", ErrCorrupt, id, m.Parent)
	}
	return ledger.Header{
		Seq:        m.Seq,
		Hash:       ledger.Key(digest),
		ParentHash: parent,
		Closed:     m.Closed,
		Validated:  m.Validated,
	}, nil
}

type snapshot struct {
	header ledger.Header
	cas    storage.CAS
	index  map[ledger.Key]cid.Cid
}

func (s *snapshot) Header() ledger.Header { return s.header }

func (s *snapshot) Read(ctx context.Context, key ledger.Key) (*ledger.Entry, error) {
	id, ok := s.index[key]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}
	b, err := s.cas.Get(ctx, id)
	if err != nil {
		// listed in the manifest, so a missing block is damage, not absence
		return nil, fmt.Errorf("%w: entry %s: %v", ErrCorrupt, key, err)
	}
	return ledger.Unmarshal(b)
}
