package ipfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kennyzlei/rippled/cidutil"
	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage"
	"github.com/kennyzlei/rippled/storage/backends"
)

// fakeIPFS emulates the block subcommands over a directory. block put
// stores under $FAKE_CID, which the test precomputes.
const fakeIPFS = `#!/bin/sh
case "$1 $2" in
"block put")
	cat > "$FAKE_DIR/$FAKE_CID"
	echo "$FAKE_CID"
	;;
"block get")
	if [ -f "$FAKE_DIR/$3" ]; then cat "$FAKE_DIR/$3"; else echo "Error: block was not found locally (offline)" >&2; exit 1; fi
	;;
"block stat")
	[ -f "$FAKE_DIR/$3" ] || exit 1
	;;
*)
	exit 2
	;;
esac
`

func newFake(t *testing.T, data []byte) (*CAS, string) {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "ipfs")
	require.NoError(t, os.WriteFile(bin, []byte(fakeIPFS), 0o755))
	blocks := filepath.Join(dir, "blocks")
	require.NoError(t, os.Mkdir(blocks, 0o755))
	id, err := cidutil.BlockID(data)
	require.NoError(t, err)
	env := append(os.Environ(), "FAKE_DIR="+blocks, "FAKE_CID="+id.String())
	return New(Options{Bin: bin, Env: env}), blocks
}

func TestPutGetHas(t *testing.T) {
	ctx := context.Background()
	data := []byte("ledger block")
	cas, _ := newFake(t, data)

	id, err := cas.Put(ctx, data)
	require.NoError(t, err)
	require.True(t, cas.Has(ctx, id))
	got, err := cas.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestGetMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	cas, _ := newFake(t, []byte("x"))
	id, err := cidutil.BlockID([]byte("absent"))
	require.NoError(t, err)
	require.False(t, cas.Has(ctx, id))
	_, err = cas.Get(ctx, id)
	require.True(t, errors.Is(err, storage.ErrNotFound), "%v", err)
}

func TestPutDetectsWrongCID(t *testing.T) {
	// the fake reports the CID of other bytes
	cas, _ := newFake(t, []byte("other"))
	_, err := cas.Put(context.Background(), []byte("mine"))
	require.ErrorIs(t, err, storage.ErrCIDMismatch)
}

func TestGetDetectsCorruptBlock(t *testing.T) {
	ctx := context.Background()
	data := []byte("original")
	cas, blocks := newFake(t, data)
	id, err := cas.Put(ctx, data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(blocks, id.String()), []byte("tampered"), 0o644))
	_, err = cas.Get(ctx, id)
	require.ErrorIs(t, err, storage.ErrCIDMismatch)
}

func TestMissingBinary(t *testing.T) {
	cas := New(Options{Bin: filepath.Join(t.TempDir(), "no-ipfs")})
	_, err := cas.Put(context.Background(), []byte("x"))
	require.Error(t, err)
}

func TestBackendRegistered(t *testing.T) {
	catalog := filepath.Join(t.TempDir(), "catalog.json")
	src, _, err := backends.Open(context.Background(), "ipfs", backends.UsageDaemon, backends.Options{"catalog": catalog})
	require.NoError(t, err)
	_, err = src.Snapshot(context.Background(), ledger.Ref{})
	require.ErrorIs(t, err, ledger.ErrLedgerNotFound)

	_, _, err = backends.Open(context.Background(), "ipfs", backends.UsageDaemon, nil)
	require.Error(t, err)
}
