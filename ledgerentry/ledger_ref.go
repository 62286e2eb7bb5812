package ledgerentry

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/kennyzlei/rippled/ledger"
)

const (
	fieldLedgerHash  = "ledger_hash"
	fieldLedgerIndex = "ledger_index"
)

// ledgerRef reads the optional ledger_hash and ledger_index fields. A hash
// wins over an index; with neither the current ledger is used.
func ledgerRef(req field) (ledger.Ref, error) {
	if h := req.get(fieldLedgerHash); h.exists() && !h.isNull() {
		if !h.isString() {
			return ledger.Ref{}, newError(KindInvalidParams, "ledger_hash must be a string")
		}
		k, ok := ledger.ParseKey(h.r.Str)
		if !ok || k.IsZero() {
			return ledger.Ref{}, newError(KindInvalidParams, "ledger_hash is malformed")
		}
		return ledger.Ref{Hash: k}, nil
	}

	idx := req.get(fieldLedgerIndex)
	switch idx.r.Type {
	case gjson.Null:
		return ledger.Ref{Shortcut: ledger.ShortcutCurrent}, nil
	case gjson.Number:
		if neg, mag, ok := integer(idx.r.Raw); ok && !neg && mag > 0 && mag <= uint64(^uint32(0)) {
			return ledger.Ref{Seq: uint32(mag)}, nil
		}
	case gjson.String:
		if sc, ok := ledger.ParseShortcut(idx.r.Str); ok {
			return ledger.Ref{Shortcut: sc}, nil
		}
		if n, err := strconv.ParseUint(idx.r.Str, 10, 32); err == nil && n > 0 {
			return ledger.Ref{Seq: uint32(n)}, nil
		}
	}
	return ledger.Ref{}, newError(KindInvalidParams, "ledger_index is malformed")
}
