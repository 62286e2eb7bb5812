package ledgerentry

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/kennyzlei/rippled/ledger"
)

var errZeroKey = errors.New("ledgerentry: lookup of zero key")

// Lookup reads loc.Key from snap, applies the type guard and renders the
// object. A missing object and a type mismatch are request errors; any
// other read failure is returned as is.
func Lookup(ctx context.Context, snap ledger.Snapshot, loc Location, binary bool) (*Result, error) {
	if loc.Key.IsZero() {
		return nil, errZeroKey
	}
	e, err := snap.Read(ctx, loc.Key)
	if errors.Is(err, ledger.ErrEntryNotFound) {
		return nil, newError(KindEntryNotFound, "no object at %s", loc.Key)
	}
	if err != nil {
		return nil, fmt.Errorf("ledgerentry: read %s: %w", loc.Key, err)
	}
	if loc.Expected != ledger.TypeAny && e.Type != loc.Expected {
		return nil, newError(KindUnexpectedLedgerType, "%s holds %s, want %s", loc.Key, e.Type, loc.Expected)
	}

	res := &Result{Index: loc.Key.String()}
	if binary {
		b, err := e.Marshal()
		if err != nil {
			return nil, fmt.Errorf("ledgerentry: serialize %s: %w", loc.Key, err)
		}
		res.NodeBinary = strings.ToUpper(hex.EncodeToString(b))
		return res, nil
	}
	res.Node = e.JSON(loc.Key)
	return res, nil
}
