package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kennyzlei/rippled/storage/casledger"
)

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: ledgerentry bundle <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
		fs.SetOutput(errOut)
		dir := fs.String("localfs-dir", "", "ledger directory to read")
		outPath := fs.String("o", "", "write the bundle here instead of stdout")
		seqList := fs.String("seq", "", "comma separated ledger sequences (default: all)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if *dir == "" || fs.NArg() != 0 {
			fmt.Fprintln(errOut, "usage: ledgerentry bundle export --localfs-dir <dir> [--seq 4,5] [-o <file>]")
			return 2
		}
		seqs, err := parseSeqs(*seqList)
		if err != nil {
			fmt.Fprintf(errOut, "--seq: %v\n", err)
			return 2
		}
		ctx := context.Background()
		store, err := casledger.OpenDir(ctx, *dir)
		if err != nil {
			fmt.Fprintf(errOut, "open: %v\n", err)
			return 1
		}
		w := out
		if *outPath != "" {
			f, err := os.Create(*outPath)
			if err != nil {
				fmt.Fprintf(errOut, "create: %v\n", err)
				return 1
			}
			defer f.Close()
			w = f
		}
		if err := store.Export(ctx, w, seqs...); err != nil {
			fmt.Fprintf(errOut, "export: %v\n", err)
			return 1
		}
		return 0
	case "import":
		fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
		fs.SetOutput(errOut)
		dir := fs.String("localfs-dir", "", "ledger directory to write")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if *dir == "" || fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: ledgerentry bundle import --localfs-dir <dir> <bundle.tar>")
			return 2
		}
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "open bundle: %v\n", err)
			return 1
		}
		defer f.Close()
		ctx := context.Background()
		store, err := casledger.OpenDir(ctx, *dir)
		if err != nil {
			fmt.Fprintf(errOut, "open: %v\n", err)
			return 1
		}
		added, err := store.Import(ctx, f)
		if err != nil {
			fmt.Fprintf(errOut, "import: %v\n", err)
			return 1
		}
		for _, h := range added {
			_, _ = fmt.Fprintf(out, "%d\t%s\n", h.Seq, h.Hash)
		}
		return 0
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func parseSeqs(s string) ([]uint32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []uint32
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid sequence %q", part)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}
