// Package ledger defines the value types shared by the lookup engine, the
// keying scheme and the snapshot stores: 256-bit keys, account and currency
// identifiers, ledger entry types, and the read-only Snapshot/Source
// contracts.
//
// A Snapshot is an immutable view of ledger state at a fixed sequence.
// Implementations MUST be safe for concurrent readers; nothing in this module
// mutates a snapshot once it has been handed to a reader.
package ledger
