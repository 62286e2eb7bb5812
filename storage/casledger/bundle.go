package casledger

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage/bundle"
)

const ledgerLabelPrefix = "ledger/"

// Export writes the named sealed ledgers, or every ledger when seqs is
// empty, as a bundle: each manifest and entry block plus a "ledger/<seq>"
// label per manifest.
func (s *Store) Export(ctx context.Context, w io.Writer, seqs ...uint32) error {
	s.mu.RLock()
	if len(seqs) == 0 {
		for seq := range s.manifests {
			seqs = append(seqs, seq)
		}
	}
	labels := make(map[string]cid.Cid, len(seqs))
	for _, seq := range seqs {
		id, ok := s.manifests[seq]
		if !ok {
			s.mu.RUnlock()
			return fmt.Errorf("%w: seq:%d", ledger.ErrLedgerNotFound, seq)
		}
		labels[ledgerLabelPrefix+strconv.FormatUint(uint64(seq), 10)] = id
	}
	s.mu.RUnlock()

	var ids []cid.Cid
	for _, id := range labels {
		m, err := s.loadManifest(ctx, id)
		if err != nil {
			return err
		}
		for _, e := range m.Entries {
			c, err := cid.Decode(e.CID)
			if err != nil {
				return fmt.Errorf("%w: manifest %s: %v", ErrCorrupt, id, err)
			}
			ids = append(ids, c)
		}
	}
	return bundle.Export(ctx, w, s.cas, ids, labels)
}

// Import copies a bundle's blocks into the store and catalogs every
// labelled ledger. A ledger already present under the same manifest is
// skipped; a different manifest for a known sequence is an error.
func (s *Store) Import(ctx context.Context, r io.Reader) ([]ledger.Header, error) {
	idx, err := bundle.Import(ctx, r, s.cas)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(idx.Labels))
	for name := range idx.Labels {
		if strings.HasPrefix(name, ledgerLabelPrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var added []ledger.Header
	for _, name := range names {
		h, fresh, err := s.adopt(ctx, idx.Labels[name])
		if err != nil {
			return added, fmt.Errorf("casledger: %s: %w", name, err)
		}
		if fresh {
			added = append(added, h)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].Seq < added[j].Seq })
	return added, nil
}

// adopt catalogs an existing manifest after checking every entry block is
// present.
func (s *Store) adopt(ctx context.Context, id cid.Cid) (ledger.Header, bool, error) {
	m, err := s.loadManifest(ctx, id)
	if err != nil {
		return ledger.Header{}, false, err
	}
	h, err := headerOf(id, m)
	if err != nil {
		return ledger.Header{}, false, err
	}
	if h.Seq == 0 {
		return ledger.Header{}, false, fmt.Errorf("%w: manifest %s: zero sequence", ErrCorrupt, id)
	}
	for _, e := range m.Entries {
		c, err := cid.Decode(e.CID)
		if err != nil {
			return ledger.Header{}, false, fmt.Errorf("%w: manifest %s: %v", ErrCorrupt, id, err)
		}
		if !s.cas.Has(ctx, c) {
			return ledger.Header{}, false, fmt.Errorf("%w: manifest %s: missing entry block %s", ErrCorrupt, id, c)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.manifests[h.Seq]; ok {
		if existing.Equals(id) {
			return h, false, nil
		}
		return ledger.Header{}, false, fmt.Errorf("ledger %d already sealed with manifest %s", h.Seq, existing)
	}
	s.manifests[h.Seq] = id
	s.headers[h.Seq] = h
	if err := s.writeCatalogLocked(); err != nil {
		delete(s.manifests, h.Seq)
		delete(s.headers, h.Seq)
		return ledger.Header{}, false, err
	}
	return h, true, nil
}
