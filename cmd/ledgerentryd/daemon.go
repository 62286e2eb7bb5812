package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/kennyzlei/rippled/config"
	"github.com/kennyzlei/rippled/grpcapi"
	"github.com/kennyzlei/rippled/jsonrpc"
	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/ledgerentry"
	"github.com/kennyzlei/rippled/storage"
	"github.com/kennyzlei/rippled/storage/grpccas"
)

// blockSource is implemented by backends that keep sealed blocks.
type blockSource interface {
	Blocks() storage.CAS
}

type daemon struct {
	cfg  *config.Config
	log  logrus.FieldLogger
	http *http.Server
	grpc *grpc.Server
}

type listeners struct {
	http net.Listener
	grpc net.Listener
}

func newDaemon(cfg *config.Config, src ledger.Source, svc *ledgerentry.Service, log logrus.FieldLogger) (*daemon, error) {
	d := &daemon{cfg: cfg, log: log}
	if cfg.HTTP.Listen != "" {
		h := jsonrpc.NewHandler(svc, log, jsonrpc.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes))
		d.http = &http.Server{
			Handler:           h.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	if cfg.GRPC.Listen != "" {
		var opts []grpc.ServerOption
		if cfg.GRPC.MaxMsgBytes > 0 {
			opts = append(opts, grpc.MaxRecvMsgSize(cfg.GRPC.MaxMsgBytes), grpc.MaxSendMsgSize(cfg.GRPC.MaxMsgBytes))
		}
		d.grpc = grpcapi.NewGRPCServer(src, log, opts...)
		if cfg.GRPC.ServeBlocks {
			bs, ok := src.(blockSource)
			if !ok {
				return nil, fmt.Errorf("backend %q has no blocks to serve", cfg.Backend.Name)
			}
			grpccas.RegisterBlockServer(d.grpc, &grpccas.Server{CAS: bs.Blocks()})
		}
	}
	return d, nil
}

func (d *daemon) listen() (listeners, error) {
	var l listeners
	var err error
	if d.http != nil {
		if l.http, err = net.Listen("tcp", d.cfg.HTTP.Listen); err != nil {
			return l, err
		}
	}
	if d.grpc != nil {
		if l.grpc, err = net.Listen("tcp", d.cfg.GRPC.Listen); err != nil {
			if l.http != nil {
				_ = l.http.Close()
			}
			return l, err
		}
	}
	return l, nil
}

// serve runs until ctx is done or a server fails, then shuts both down
// within the configured timeout.
func (d *daemon) serve(ctx context.Context, l listeners) error {
	errCh := make(chan error, 2)
	if d.http != nil {
		d.log.WithField("addr", l.http.Addr().String()).Info("json-rpc listening")
		go func() {
			if err := d.http.Serve(l.http); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http: %w", err)
			}
		}()
	}
	if d.grpc != nil {
		d.log.WithField("addr", l.grpc.Addr().String()).Info("grpc listening")
		go func() {
			if err := d.grpc.Serve(l.grpc); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	d.shutdown()
	return runErr
}

func (d *daemon) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer cancel()

	if d.http != nil {
		if err := d.http.Shutdown(ctx); err != nil {
			d.log.WithError(err).Warn("http shutdown")
		}
	}
	if d.grpc != nil {
		done := make(chan struct{})
		go func() {
			d.grpc.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			d.grpc.Stop()
		}
	}
}
