package bundle_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/kennyzlei/rippled/cidutil"
	"github.com/kennyzlei/rippled/storage"
	"github.com/kennyzlei/rippled/storage/bundle"
	"github.com/kennyzlei/rippled/storage/localfs"
)

func newCAS(t *testing.T) *localfs.CAS {
	t.Helper()
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return cas
}

func TestBundle_ExportIsDeterministic(t *testing.T) {
	ctx := context.Background()
	cas := newCAS(t)
	id1, err := cas.Put(ctx, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := cas.Put(ctx, []byte("world"))
	if err != nil {
		t.Fatal(err)
	}

	var outA, outB bytes.Buffer
	labels := map[string]cid.Cid{"ledger/1": id1}
	if err := bundle.Export(ctx, &outA, cas, []cid.Cid{id2, id1}, labels); err != nil {
		t.Fatal(err)
	}
	if err := bundle.Export(ctx, &outB, cas, []cid.Cid{id1, id2, id1}, labels); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}
}

func TestBundle_ImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newCAS(t)
	payload := []byte("payload")
	id, err := src.Put(ctx, payload)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := bundle.Export(ctx, &buf, src, nil, map[string]cid.Cid{"ledger/9": id}); err != nil {
		t.Fatal(err)
	}

	dst := newCAS(t)
	idx, err := bundle.Import(ctx, bytes.NewReader(buf.Bytes()), dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Blocks) != 1 || !idx.Blocks[0].Equals(id) {
		t.Fatalf("unexpected blocks: %v", idx.Blocks)
	}
	if !idx.Labels["ledger/9"].Equals(id) {
		t.Fatalf("label not carried: %v", idx.Labels)
	}
	got, err := dst.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestBundle_ExportMissingBlock(t *testing.T) {
	ctx := context.Background()
	id, err := cidutil.BlockID([]byte("absent"))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	err = bundle.Export(ctx, &buf, newCAS(t), []cid.Cid{id}, nil)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBundle_ImportRejectsCIDMismatch(t *testing.T) {
	good := []byte("good")
	otherCID, err := cidutil.BlockID([]byte("other"))
	if err != nil {
		t.Fatal(err)
	}

	// name says otherCID but the bytes are "good"
	bundleBytes := makeTar(t, map[string][]byte{"blocks/" + otherCID.String(): good})
	if _, err := bundle.Import(context.Background(), bytes.NewReader(bundleBytes), newCAS(t)); !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestBundle_ImportRejectsUnknownAndEscapingEntries(t *testing.T) {
	for _, name := range []string{"notes.txt", "../blocks/x", "blocks/not-a-cid"} {
		b := makeTar(t, map[string][]byte{name: []byte("x")})
		if _, err := bundle.Import(context.Background(), bytes.NewReader(b), newCAS(t)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBundle_ImportRejectsDanglingLabel(t *testing.T) {
	id, err := cidutil.BlockID([]byte("elsewhere"))
	if err != nil {
		t.Fatal(err)
	}
	index := `{"version":1,"cidCodec":"raw","multihash":"sha2-256","blocks":[],"labels":[{"name":"ledger/1","cid":"` + id.String() + `"}]}`
	b := makeTar(t, map[string][]byte{"index.json": []byte(index)})
	_, err = bundle.Import(context.Background(), bytes.NewReader(b), newCAS(t))
	if err == nil || !strings.Contains(err.Error(), "outside the bundle") {
		t.Fatalf("expected dangling label error, got %v", err)
	}
}

func makeTar(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		h := &tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			ModTime:  time.Unix(0, 0).UTC(),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(h); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
