package grpcapi

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/metrics"
)

const (
	msgIndexMalformed = "index malformed"
	msgObjectNotFound = "object not found"
)

// Server answers GetLedgerEntry from a ledger.Source.
type Server struct {
	UnimplementedLedgerEntryServer
	Source ledger.Source
}

// GetLedgerEntry resolves the ledger first, then reads the raw object
// stored under the 32-byte key. The response echoes the requested ledger.
func (s *Server) GetLedgerEntry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.Source == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing ledger source")
	}
	req, err := decodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ref, err := req.Ledger.ref()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	snap, err := s.Source.Snapshot(ctx, ref)
	if err != nil {
		return nil, mapErr(err)
	}

	key, ok := ledger.KeyFromBytes(req.Key)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, msgIndexMalformed)
	}
	e, err := snap.Read(ctx, key)
	if err != nil {
		return nil, mapErr(err)
	}
	data, err := e.Marshal()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	resp := &Response{
		Data:   data,
		Key:    key[:],
		Ledger: req.Ledger,
	}
	return resp.Struct(), nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrEntryNotFound):
		return status.Error(codes.NotFound, msgObjectNotFound)
	case errors.Is(err, ledger.ErrLedgerNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// UnaryInterceptor counts calls by status code and logs failures.
func UnaryInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		metrics.RecordGRPC(info.FullMethod, code.String())

		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     code.String(),
			"duration": time.Since(start),
		})
		switch code {
		case codes.OK, codes.NotFound, codes.InvalidArgument:
			entry.Debug("grpc request")
		default:
			entry.WithError(err).Warn("grpc request failed")
		}
		return resp, err
	}
}

// NewGRPCServer returns a grpc.Server with the ledger entry service and
// interceptor registered.
func NewGRPCServer(src ledger.Source, log logrus.FieldLogger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.UnaryInterceptor(UnaryInterceptor(log)))
	srv := grpc.NewServer(opts...)
	RegisterLedgerEntryServer(srv, &Server{Source: src})
	return srv
}
