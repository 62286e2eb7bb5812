package ledgerentry

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kennyzlei/rippled/ledger"
	"github.com/kennyzlei/rippled/metrics"
)

// Service answers ledger_entry requests against a snapshot source. It holds
// no per-request state and is safe for concurrent use.
type Service struct {
	source ledger.Source
	log    logrus.FieldLogger
}

// NewService builds a service over src. A nil logger discards output.
func NewService(src ledger.Source, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Service{source: src, log: log}
}

// Source returns the snapshot source the service reads from.
func (s *Service) Source() ledger.Source { return s.source }

// LedgerEntry selects a snapshot, locates the requested object and renders
// it. Request errors come back as a Result with Error set. The returned
// error is non-nil only for structural errors under API version 1 and for
// faults in the snapshot source.
func (s *Service) LedgerEntry(ctx context.Context, params []byte, apiVersion uint) (*Result, error) {
	start := time.Now()
	res, variant, err := s.ledgerEntry(ctx, params, apiVersion)

	outcome := "success"
	switch {
	case err != nil && errors.Is(err, ErrStructural):
		outcome = "structural"
	case err != nil:
		outcome = "fault"
	case !res.OK():
		outcome = string(res.Error)
	}
	metrics.RecordLookup(variant.String(), outcome, time.Since(start))

	entry := s.log.WithFields(logrus.Fields{
		"variant":     variant.String(),
		"api_version": apiVersion,
		"result":      outcome,
	})
	switch {
	case err != nil && errors.Is(err, ErrStructural):
		entry.WithError(err).Debug("ledger_entry: structural request error")
	case err != nil:
		entry.WithError(err).Error("ledger_entry: lookup failed")
	case !res.OK():
		entry.WithField("reason", res.ErrorMessage).Debug("ledger_entry: request rejected")
	default:
		entry.WithField("index", res.Index).Debug("ledger_entry: served")
	}
	return res, err
}

func (s *Service) ledgerEntry(ctx context.Context, params []byte, apiVersion uint) (*Result, Variant, error) {
	req, err := parseRequest(params)
	if err != nil {
		res, err := asResult(versionPolicy(err, apiVersion))
		return res, Unrecognized, err
	}

	ref, err := ledgerRef(req)
	if err != nil {
		res, err := asResult(err)
		return res, Unrecognized, err
	}
	snap, err := s.source.Snapshot(ctx, ref)
	if errors.Is(err, ledger.ErrLedgerNotFound) {
		return errorResult(&Error{Kind: KindLedgerNotFound, Message: ref.String()}), Unrecognized, nil
	}
	if err != nil {
		return nil, Unrecognized, err
	}
	header := snap.Header()

	loc, err := locate(req)
	if err != nil {
		res, err := asResult(versionPolicy(err, apiVersion))
		if res != nil {
			res.withLedger(header)
		}
		return res, loc.Variant, err
	}

	res, err := Lookup(ctx, snap, loc, binaryFlag(req))
	if err != nil {
		res, err := asResult(err)
		if res != nil {
			res.withLedger(header)
		}
		return res, loc.Variant, err
	}
	return res.withLedger(header), loc.Variant, nil
}

// asResult turns a request error into a result and passes anything else
// through.
func asResult(err error) (*Result, error) {
	var e *Error
	if errors.As(err, &e) {
		return errorResult(e), nil
	}
	return nil, err
}
