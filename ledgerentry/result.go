package ledgerentry

import (
	"github.com/kennyzlei/rippled/ledger"
)

// Result is the ledger_entry response body. Exactly one of Node,
// NodeBinary and Error is set; Index accompanies Node and NodeBinary.
type Result struct {
	LedgerHash         string         `json:"ledger_hash,omitempty"`
	LedgerIndex        uint32         `json:"ledger_index,omitempty"`
	LedgerCurrentIndex uint32         `json:"ledger_current_index,omitempty"`
	Validated          *bool          `json:"validated,omitempty"`
	Index              string         `json:"index,omitempty"`
	Node               map[string]any `json:"node,omitempty"`
	NodeBinary         string         `json:"node_binary,omitempty"`
	Error              Kind           `json:"error,omitempty"`
	ErrorMessage       string         `json:"-"`
}

// OK reports whether the result carries an object.
func (r *Result) OK() bool { return r.Error == "" }

// withLedger echoes the snapshot the request was served from. Open ledgers
// are reported by current index only.
func (r *Result) withLedger(h ledger.Header) *Result {
	if h.Closed || h.Validated {
		r.LedgerHash = h.Hash.String()
		r.LedgerIndex = h.Seq
	} else {
		r.LedgerCurrentIndex = h.Seq
	}
	v := h.Validated
	r.Validated = &v
	return r
}

func errorResult(e *Error) *Result {
	return &Result{Error: e.Kind, ErrorMessage: e.Message}
}
