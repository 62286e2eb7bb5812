package sqlstore

import (
	"context"
	"flag"
	"fmt"

	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage/backends"
)

var flagDSN string

func init() {
	backends.MustRegister(backends.Backend{
		Name:        "postgres",
		Description: "Ledgers stored in PostgreSQL",
		Usage:       backends.UsageCLI | backends.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagDSN, "postgres-dsn", "", "PostgreSQL DSN (for --backend=postgres)")
		},
		Open: func(ctx context.Context, opts backends.Options) (ledger.Source, func() error, error) {
			dsn := opts.Pick(flagDSN, "dsn")
			if dsn == "" {
				return nil, nil, fmt.Errorf("missing --postgres-dsn")
			}
			s, err := Open(ctx, dsn)
			if err != nil {
				return nil, nil, err
			}
			return s, s.Close, nil
		},
	})
}
