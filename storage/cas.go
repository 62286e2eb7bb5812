// Package storage defines the content-addressed block store that sealed
// ledger snapshots are written to.
package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// CAS is a content-addressed block store.
//
// Contract:
//   - Put is idempotent and returns cidutil.BlockID(bytes).
//   - Blocks are immutable; a Put that would change stored bytes fails with
//     ErrImmutable.
//   - Get returns ErrNotFound for absent blocks and ErrCIDMismatch when the
//     stored bytes no longer hash to the requested CID.
//   - Implementations are safe for concurrent use.
type CAS interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) bool
}
