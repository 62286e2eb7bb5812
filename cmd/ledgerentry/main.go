package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/kennyzlei/rippled/addresscodec"
	"github.com/kennyzlei/rippled/ledgerentry"
	"github.com/kennyzlei/rippled/storage/backends"

	_ "github.com/kennyzlei/rippled/internal/fixture"
	_ "github.com/kennyzlei/rippled/storage/casledger"
	_ "github.com/kennyzlei/rippled/storage/ipfs"
	_ "github.com/kennyzlei/rippled/storage/sqlstore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "query":
		return cmdQuery(args[1:], in, out, errOut)
	case "key":
		return cmdKey(args[1:], in, out, errOut)
	case "import":
		return cmdImport(args[1:], out, errOut)
	case "account":
		return cmdAccount(args[1:], out, errOut)
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "backends":
		for _, b := range backends.List(backends.UsageCLI) {
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ledgerentry: ledger_entry lookups from the command line")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ledgerentry query --backend <name> [backend flags] [--api-version N] <request.json|->")
	fmt.Fprintln(w, "  ledgerentry key [--api-version N] <request.json|->")
	fmt.Fprintln(w, "  ledgerentry import --fixture <ledgers.json> (--localfs-dir <dir> | --postgres-dsn <dsn> [--migrate])")
	fmt.Fprintln(w, "  ledgerentry bundle export --localfs-dir <dir> [--seq 4,5] [-o <file>]")
	fmt.Fprintln(w, "  ledgerentry bundle import --localfs-dir <dir> <bundle.tar>")
	fmt.Fprintln(w, "  ledgerentry account <public key hex>")
	fmt.Fprintln(w, "  ledgerentry backends")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - request.json holds the ledger_entry params object, e.g. {\"account_root\": \"r...\"}")
	fmt.Fprintln(w, "  - query exits 1 when the result is an error; the result is still printed")
	fmt.Fprintln(w, "  - key prints <variant> <expected type> <key> without touching any ledger")
}

func readRequest(fs *flag.FlagSet, in io.Reader, errOut io.Writer, usage string) ([]byte, bool) {
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, usage)
		return nil, false
	}
	var (
		b   []byte
		err error
	)
	if fs.Arg(0) == "-" {
		b, err = io.ReadAll(in)
	} else {
		b, err = os.ReadFile(fs.Arg(0))
	}
	if err != nil {
		fmt.Fprintf(errOut, "read request: %v\n", err)
		return nil, false
	}
	return b, true
}

func cmdQuery(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(errOut)
	backend := fs.String("backend", "localfs", "snapshot backend ("+strings.Join(backends.Names(backends.UsageCLI), ", ")+")")
	apiVersion := fs.Uint("api-version", 1, "API version (1 or 2)")
	backends.RegisterFlags(fs, backends.UsageCLI)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *apiVersion < 1 || *apiVersion > 2 {
		fmt.Fprintln(errOut, "--api-version must be 1 or 2")
		return 2
	}
	req, ok := readRequest(fs, in, errOut, "usage: ledgerentry query --backend <name> [backend flags] <request.json|->")
	if !ok {
		return 2
	}

	ctx := context.Background()
	src, closeFn, err := backends.Open(ctx, *backend, backends.UsageCLI, nil)
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return 1
	}
	if closeFn != nil {
		defer closeFn()
	}

	res, err := ledgerentry.NewService(src, nil).LedgerEntry(ctx, req, *apiVersion)
	if err != nil {
		if errors.Is(err, ledgerentry.ErrStructural) {
			fmt.Fprintf(errOut, "internal: %v\n", err)
			return 1
		}
		fmt.Fprintf(errOut, "lookup: %v\n", err)
		return 1
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(errOut, "encode result: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, string(b))
	if !res.OK() {
		if res.ErrorMessage != "" {
			fmt.Fprintf(errOut, "%s: %s\n", res.Error, res.ErrorMessage)
		}
		return 1
	}
	return 0
}

func cmdKey(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key", flag.ContinueOnError)
	fs.SetOutput(errOut)
	apiVersion := fs.Uint("api-version", 1, "API version (1 or 2)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	req, ok := readRequest(fs, in, errOut, "usage: ledgerentry key [--api-version N] <request.json|->")
	if !ok {
		return 2
	}
	loc, err := ledgerentry.Locate(req, *apiVersion)
	if err != nil {
		if _, ok := ledgerentry.KindOf(err); ok {
			fmt.Fprintln(errOut, err)
		} else {
			fmt.Fprintf(errOut, "internal: %v\n", err)
		}
		return 1
	}
	_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", loc.Variant, loc.Expected, loc.Key)
	return 0
}

func cmdAccount(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: ledgerentry account <public key hex>")
		return 2
	}
	pub, err := hex.DecodeString(args[0])
	if err != nil || len(pub) != 33 {
		fmt.Fprintln(errOut, "public key must be 33 bytes of hex")
		return 1
	}
	id := addresscodec.AccountIDFromPublicKey(pub)
	_, _ = fmt.Fprintf(out, "%s\t%s\n", addresscodec.EncodeAccountID(id), id)
	return 0
}
