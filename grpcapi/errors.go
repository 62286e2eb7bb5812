package grpcapi

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kennyzlei/rippled/ledger"
)

// ErrInvalidArgument is returned by the client when the server rejects the
// key or the ledger specifier.
var ErrInvalidArgument = errors.New("grpcapi: invalid argument")

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		if st.Message() == msgObjectNotFound {
			return ledger.ErrEntryNotFound
		}
		return ledger.ErrLedgerNotFound
	case codes.InvalidArgument:
		return errors.Join(ErrInvalidArgument, errors.New(st.Message()))
	default:
		return err
	}
}
