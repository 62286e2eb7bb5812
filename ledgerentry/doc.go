// Package ledgerentry resolves ledger_entry requests.
//
// A request is a JSON object naming one ledger object in one of several
// mutually exclusive shapes (an account, an escrow, a trust line, a raw
// index and so on). Locate classifies the shape, validates it and derives
// the object's key; Lookup reads the key from a snapshot, checks the object
// type the shape implied and renders the result. Service ties both to a
// ledger.Source and handles ledger selection.
//
// Errors reported to the caller are *Error values carrying a stable Kind.
// Structural request errors (an object where a scalar was expected, a
// negative unsigned integer, a document that is not an object) surface as
// invalidParams from API version 2 on; for earlier versions they are
// returned as ErrStructural for the transport to report.
package ledgerentry
