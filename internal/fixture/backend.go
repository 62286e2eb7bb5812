package fixture

import (
	"context"
	"flag"
	"fmt"

	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage/backends"
)

var flagFile string

func init() {
	backends.MustRegister(backends.Backend{
		Name:        "fixture",
		Description: "Ledgers loaded into memory from a JSON fixture",
		Usage:       backends.UsageCLI | backends.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagFile, "fixture-file", "", "JSON fixture (for --backend=fixture)")
		},
		Open: func(_ context.Context, opts backends.Options) (ledger.Source, func() error, error) {
			path := opts.Pick(flagFile, "file")
			if path == "" {
				return nil, nil, fmt.Errorf("missing --fixture-file")
			}
			f, err := ReadFile(path)
			if err != nil {
				return nil, nil, err
			}
			src, err := f.Memory()
			return src, nil, err
		},
	})
}
