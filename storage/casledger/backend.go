package casledger

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage"
	"github.com/kennyzlei/rippled/storage/backends"
	"github.com/kennyzlei/rippled/storage/grpccas"
	"github.com/kennyzlei/rippled/storage/localfs"
)

var (
	flagDir           string
	flagRemote        string
	flagRemoteTimeout time.Duration
)

func init() {
	backends.MustRegister(backends.Backend{
		Name:        "localfs",
		Description: "Sealed ledgers in a local block directory, optionally backed by a remote block service",
		Usage:       backends.UsageCLI | backends.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagDir, "localfs-dir", "", "ledger directory (for --backend=localfs)")
			fs.StringVar(&flagRemote, "localfs-remote", "", "block service host:port to read missing blocks from (for --backend=localfs)")
			fs.DurationVar(&flagRemoteTimeout, "localfs-remote-timeout", 5*time.Second, "per-RPC timeout for --localfs-remote")
		},
		Open: func(ctx context.Context, opts backends.Options) (ledger.Source, func() error, error) {
			dir := opts.Pick(flagDir, "dir")
			if dir == "" {
				return nil, nil, fmt.Errorf("missing --localfs-dir")
			}
			remote := strings.TrimSpace(opts.Pick(flagRemote, "remote"))
			if remote == "" {
				s, err := OpenDir(ctx, dir)
				return s, nil, err
			}
			client, err := grpccas.Dial(remote, grpccas.DialOptions{Timeout: flagRemoteTimeout})
			if err != nil {
				return nil, nil, err
			}
			s, err := OpenDirWithFallback(ctx, dir, client)
			if err != nil {
				_ = client.Close()
				return nil, nil, err
			}
			return s, client.Close, nil
		},
	})
}

// OpenDir opens the store laid out under dir: blocks in dir/blocks and the
// catalog in dir/catalog.json.
func OpenDir(ctx context.Context, dir string) (*Store, error) {
	return OpenDirWithFallback(ctx, dir, nil)
}

// OpenDirWithFallback is OpenDir with blocks missing locally read from
// fallback. New blocks are always written locally.
func OpenDirWithFallback(ctx context.Context, dir string, fallback storage.CAS) (*Store, error) {
	local, err := localfs.New(filepath.Join(dir, "blocks"))
	if err != nil {
		return nil, err
	}
	var cas storage.CAS = local
	if fallback != nil {
		cas = storage.MultiCAS{Stores: []storage.CAS{local, fallback}}
	}
	return Open(ctx, cas, filepath.Join(dir, "catalog.json"))
}
