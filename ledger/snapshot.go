package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	// ErrEntryNotFound is returned by Snapshot.Read when no object is stored
	// under the requested key.
	ErrEntryNotFound = errors.New("ledger: entry not found")
	// ErrLedgerNotFound is returned by Source.Snapshot when no snapshot
	// matches the reference.
	ErrLedgerNotFound = errors.New("ledger: ledger not found")
)

// Header describes a snapshot.
type Header struct {
	Seq        uint32
	Hash       Key
	ParentHash Key
	Closed     bool
	Validated  bool
}

// Snapshot is a read-only view of ledger state at one sequence.
type Snapshot interface {
	Header() Header
	// Read returns the entry stored under key, or ErrEntryNotFound.
	Read(ctx context.Context, key Key) (*Entry, error)
}

// Source hands out snapshots by reference.
type Source interface {
	Snapshot(ctx context.Context, ref Ref) (Snapshot, error)
}

// Shortcut names a ledger by role rather than by identity.
type Shortcut string

const (
	ShortcutCurrent   Shortcut = "current"
	ShortcutClosed    Shortcut = "closed"
	ShortcutValidated Shortcut = "validated"
)

// Ref selects a snapshot. Hash wins over Seq, Seq wins over Shortcut; the
// zero Ref means the current ledger.
type Ref struct {
	Hash     Key
	Seq      uint32
	Shortcut Shortcut
}

func (r Ref) String() string {
	switch {
	case !r.Hash.IsZero():
		return "hash:" + r.Hash.String()
	case r.Seq != 0:
		return "seq:" + strconv.FormatUint(uint64(r.Seq), 10)
	case r.Shortcut != "":
		return string(r.Shortcut)
	default:
		return string(ShortcutCurrent)
	}
}

// ParseShortcut accepts the three shortcut names.
func ParseShortcut(s string) (Shortcut, bool) {
	switch Shortcut(s) {
	case ShortcutCurrent, ShortcutClosed, ShortcutValidated:
		return Shortcut(s), true
	default:
		return "", false
	}
}

// Select picks the header matching ref from a set of known headers.
//
// Shortcuts resolve to the highest sequence with the matching state: any
// ledger for current, closed or validated ledgers for closed, validated
// ledgers for validated.
func Select(headers []Header, ref Ref) (Header, error) {
	if !ref.Hash.IsZero() {
		for _, h := range headers {
			if h.Hash == ref.Hash {
				return h, nil
			}
		}
		return Header{}, fmt.Errorf("%w: %s", ErrLedgerNotFound, ref)
	}
	if ref.Seq != 0 {
		for _, h := range headers {
			if h.Seq == ref.Seq {
				return h, nil
			}
		}
		return Header{}, fmt.Errorf("%w: %s", ErrLedgerNotFound, ref)
	}

	sorted := append([]Header(nil), headers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seq > sorted[j].Seq })
	for _, h := range sorted {
		switch ref.Shortcut {
		case ShortcutValidated:
			if h.Validated {
				return h, nil
			}
		case ShortcutClosed:
			if h.Closed || h.Validated {
				return h, nil
			}
		default:
			return h, nil
		}
	}
	return Header{}, fmt.Errorf("%w: %s", ErrLedgerNotFound, ref)
}
