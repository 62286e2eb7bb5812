package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/kennyzlei/rippled/internal/fixture"
	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/storage/casledger"
	"github.com/kennyzlei/rippled/storage/memory"
	"github.com/kennyzlei/rippled/storage/sqlstore"
)

func cmdImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fixturePath := fs.String("fixture", "", "JSON ledger fixture")
	dir := fs.String("localfs-dir", "", "seal into this localfs ledger directory")
	dsn := fs.String("postgres-dsn", "", "insert into this PostgreSQL database")
	migrate := fs.Bool("migrate", false, "create the PostgreSQL schema first")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *fixturePath == "" || (*dir == "") == (*dsn == "") {
		fmt.Fprintln(errOut, "usage: ledgerentry import --fixture <ledgers.json> (--localfs-dir <dir> | --postgres-dsn <dsn> [--migrate])")
		return 2
	}

	f, err := fixture.ReadFile(*fixturePath)
	if err != nil {
		fmt.Fprintf(errOut, "read fixture: %v\n", err)
		return 1
	}
	sort.Slice(f.Ledgers, func(i, j int) bool { return f.Ledgers[i].Seq < f.Ledgers[j].Seq })

	ctx := context.Background()
	var sealed []ledger.Header
	if *dir != "" {
		sealed, err = importLocalFS(ctx, f, *dir)
	} else {
		sealed, err = importPostgres(ctx, f, *dsn, *migrate)
	}
	if err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	for _, h := range sealed {
		_, _ = fmt.Fprintf(out, "%d\t%s\n", h.Seq, h.Hash)
	}
	return 0
}

func importLocalFS(ctx context.Context, f *fixture.File, dir string) ([]ledger.Header, error) {
	store, err := casledger.OpenDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	var sealed []ledger.Header
	for _, l := range f.Ledgers {
		h, err := l.Header()
		if err != nil {
			return sealed, err
		}
		entries, err := l.Decode()
		if err != nil {
			return sealed, err
		}
		items := make([]casledger.Item, 0, len(entries))
		for _, d := range entries {
			items = append(items, casledger.Item{Key: d.Key, Entry: d.Entry})
		}
		h, err = store.Seal(ctx, h, items)
		if err != nil {
			return sealed, err
		}
		sealed = append(sealed, h)
	}
	return sealed, nil
}

// importPostgres inserts each ledger under the hash the in-memory store
// derives for the same contents.
func importPostgres(ctx context.Context, f *fixture.File, dsn string, migrate bool) ([]ledger.Header, error) {
	store, err := sqlstore.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if migrate {
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	var sealed []ledger.Header
	for _, l := range f.Ledgers {
		h, err := l.Header()
		if err != nil {
			return sealed, err
		}
		entries, err := l.Decode()
		if err != nil {
			return sealed, err
		}
		ml := memory.NewLedger(h)
		items := make([]sqlstore.Item, 0, len(entries))
		for _, d := range entries {
			if err := ml.Put(d.Key, d.Entry); err != nil {
				return sealed, err
			}
			items = append(items, sqlstore.Item{Key: d.Key, Entry: d.Entry})
		}
		ml.Seal()
		h = ml.Header()
		if err := store.Seal(ctx, h, items); err != nil {
			return sealed, err
		}
		sealed = append(sealed, h)
	}
	return sealed, nil
}
