package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kennyzlei/rippled/config"
	"github.com/kennyzlei/rippled/ledgerentry"
	"github.com/kennyzlei/rippled/storage/backends"

	_ "github.com/kennyzlei/rippled/internal/fixture"
	_ "github.com/kennyzlei/rippled/storage/casledger"
	_ "github.com/kennyzlei/rippled/storage/ipfs"
	_ "github.com/kennyzlei/rippled/storage/sqlstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("ledgerentryd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "YAML config file")
	envFile := fs.String("env-file", "", "dotenv file (default: ./.env when present)")
	backend := fs.String("backend", "", "snapshot backend name (overrides backend.name)")
	httpListen := fs.String("http-listen", "", "JSON-RPC listen address (overrides http.listen)")
	grpcListen := fs.String("grpc-listen", "", "gRPC listen address (overrides grpc.listen)")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	backends.RegisterFlags(fs, backends.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *listBackends {
		for _, b := range backends.List(backends.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if *backend != "" {
		cfg.Backend.Name = *backend
	}
	if *httpListen != "" {
		cfg.HTTP.Listen = *httpListen
	}
	if *grpcListen != "" {
		cfg.GRPC.Listen = *grpcListen
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	log, err := cfg.Log.NewLogger(errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	src, closeFn, err := backends.Open(ctx, cfg.Backend.Name, backends.UsageDaemon, cfg.Backend.Options)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.Backend.Name).Error("open backend")
		return 2
	}
	if closeFn != nil {
		defer func() {
			if err := closeFn(); err != nil {
				log.WithError(err).Warn("close backend")
			}
		}()
	}

	d, err := newDaemon(cfg, src, ledgerentry.NewService(src, log), log)
	if err != nil {
		log.WithError(err).Error("configure servers")
		return 2
	}
	lis, err := d.listen()
	if err != nil {
		log.WithError(err).Error("listen")
		return 1
	}
	log.WithField("backend", cfg.Backend.Name).Info("ledgerentryd starting")
	if err := d.serve(ctx, lis); err != nil {
		log.WithError(err).Error("ledgerentryd stopped")
		return 1
	}
	log.Info("ledgerentryd stopped")
	return 0
}
