// Package bundle packs CAS blocks into a deterministic TAR archive so sealed
// ledgers can be moved between stores.
//
// Layout: blocks/<cid> for every block, then index.json listing the blocks
// and named labels (for example "ledger/7" -> manifest CID).
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	jsoniter "github.com/json-iterator/go"

	"github.com/kennyzlei/rippled/cidutil"
	"github.com/kennyzlei/rippled/storage"
)

// FormatVersion is the current index schema version.
const FormatVersion = 1

const indexName = "index.json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var epoch0 = time.Unix(0, 0).UTC()

// Index describes the contents of a bundle.
type Index struct {
	Blocks []cid.Cid
	Labels map[string]cid.Cid
}

// Export writes the blocks named by ids and labels to w. Label targets are
// exported too. Output bytes depend only on the set of blocks and labels.
func Export(ctx context.Context, w io.Writer, cas storage.CAS, ids []cid.Cid, labels map[string]cid.Cid) error {
	if cas == nil {
		return errors.New("bundle: nil CAS")
	}
	uniq := make(map[string]cid.Cid, len(ids)+len(labels))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	for name, id := range labels {
		if name == "" {
			return errors.New("bundle: empty label name")
		}
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for s := range uniq {
		names = append(names, s)
	}
	sort.Strings(names)

	tw := tar.NewWriter(w)
	idx := indexJSON{Version: FormatVersion, CIDCodec: "raw", Multihash: "sha2-256"}
	for _, s := range names {
		if err := ctx.Err(); err != nil {
			_ = tw.Close()
			return err
		}
		id := uniq[s]
		b, err := cas.Get(ctx, id)
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("bundle: block %s: %w", id, err)
		}
		got, err := cidutil.BlockID(b)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if !got.Equals(id) {
			_ = tw.Close()
			return storage.ErrCIDMismatch
		}
		if err := writeFile(tw, "blocks/"+s, b); err != nil {
			_ = tw.Close()
			return err
		}
		idx.Blocks = append(idx.Blocks, indexBlock{CID: s, Size: len(b)})
	}

	labelNames := make([]string, 0, len(labels))
	for name := range labels {
		labelNames = append(labelNames, name)
	}
	sort.Strings(labelNames)
	for _, name := range labelNames {
		idx.Labels = append(idx.Labels, indexLabel{Name: name, CID: labels[name].String()})
	}
	b, err := json.Marshal(idx)
	if err != nil {
		_ = tw.Close()
		return err
	}
	if err := writeFile(tw, indexName, append(b, '\n')); err != nil {
		_ = tw.Close()
		return err
	}
	return tw.Close()
}

// Import copies every block of the bundle in r into cas and returns its
// index. Each block must hash to its file name; unknown entries, duplicate
// blocks and labels pointing outside the bundle are errors.
func Import(ctx context.Context, r io.Reader, cas storage.CAS) (*Index, error) {
	if cas == nil {
		return nil, errors.New("bundle: nil CAS")
	}
	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	out := &Index{Labels: map[string]cid.Cid{}}
	var idx *indexJSON

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return nil, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			return nil, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		if name == indexName {
			var parsed indexJSON
			if err := json.NewDecoder(tr).Decode(&parsed); err != nil {
				return nil, fmt.Errorf("bundle: %s: %w", indexName, err)
			}
			if parsed.Version != FormatVersion {
				return nil, fmt.Errorf("bundle: %s: unsupported version %d", indexName, parsed.Version)
			}
			idx = &parsed
			continue
		}

		cidStr, ok := strings.CutPrefix(name, "blocks/")
		if !ok {
			return nil, fmt.Errorf("bundle: unknown entry: %s", name)
		}
		id, err := cid.Decode(cidStr)
		if err != nil || !id.Defined() {
			return nil, storage.ErrInvalidCID
		}
		payload, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		got, err := cidutil.BlockID(payload)
		if err != nil {
			return nil, err
		}
		if !got.Equals(id) {
			return nil, storage.ErrCIDMismatch
		}
		if _, dup := seen[id.String()]; dup {
			return nil, fmt.Errorf("bundle: duplicate block entry: %s", id)
		}
		seen[id.String()] = struct{}{}

		putID, err := cas.Put(ctx, payload)
		if err != nil {
			return nil, err
		}
		if !putID.Equals(id) {
			return nil, storage.ErrCIDMismatch
		}
		out.Blocks = append(out.Blocks, id)
	}

	if idx != nil {
		for _, l := range idx.Labels {
			id, err := cid.Decode(l.CID)
			if err != nil {
				return nil, fmt.Errorf("bundle: label %q: %w", l.Name, storage.ErrInvalidCID)
			}
			if _, ok := seen[id.String()]; !ok {
				return nil, fmt.Errorf("bundle: label %q points outside the bundle", l.Name)
			}
			out.Labels[l.Name] = id
		}
	}
	return out, nil
}

type indexJSON struct {
	Version   int          `json:"version"`
	CIDCodec  string       `json:"cidCodec"`
	Multihash string       `json:"multihash"`
	Blocks    []indexBlock `json:"blocks"`
	Labels    []indexLabel `json:"labels,omitempty"`
}

type indexBlock struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
