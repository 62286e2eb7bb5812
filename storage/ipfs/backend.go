package ipfs

import (
	"context"
	"flag"
	"fmt"

	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage/backends"
	"github.com/kennyzlei/rippled/storage/casledger"
)

var (
	flagBin     string
	flagCatalog string
)

func init() {
	backends.MustRegister(backends.Backend{
		Name:        "ipfs",
		Description: "Sealed ledgers with blocks in the local IPFS repo (ipfs CLI)",
		Usage:       backends.UsageCLI | backends.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagBin, "ipfs-bin", "", "ipfs binary (for --backend=ipfs; default: ipfs)")
			fs.StringVar(&flagCatalog, "ipfs-catalog", "", "catalog file listing sealed ledgers (for --backend=ipfs)")
		},
		Open: func(ctx context.Context, opts backends.Options) (ledger.Source, func() error, error) {
			catalog := opts.Pick(flagCatalog, "catalog")
			if catalog == "" {
				return nil, nil, fmt.Errorf("missing --ipfs-catalog")
			}
			s, err := casledger.Open(ctx, New(Options{Bin: opts.Pick(flagBin, "bin")}), catalog)
			return s, nil, err
		},
	})
}
