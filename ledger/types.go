package ledger

import (
	"bytes"
	"encoding/hex"
	"strings"
)

// Key is a 256-bit ledger object identifier.
//
// The zero Key is a sentinel meaning "not computed"; no object is ever stored
// under it.
type Key [32]byte

// ParseKey parses exactly 64 hex digits (either case).
func ParseKey(s string) (Key, bool) {
	var k Key
	if len(s) != 2*len(k) {
		return Key{}, false
	}
	if _, err := hex.Decode(k[:], []byte(s)); err != nil {
		return Key{}, false
	}
	return k, true
}

// KeyFromBytes copies a 32-byte slice into a Key.
func KeyFromBytes(b []byte) (Key, bool) {
	var k Key
	if len(b) != len(k) {
		return Key{}, false
	}
	copy(k[:], b)
	return k, true
}

func (k Key) IsZero() bool { return k == Key{} }

// String renders the key as upper-case hex.
func (k Key) String() string { return strings.ToUpper(hex.EncodeToString(k[:])) }

// AccountID is the 160-bit identifier behind a classic address.
type AccountID [20]byte

func (a AccountID) IsZero() bool { return a == AccountID{} }

func (a AccountID) Less(b AccountID) bool { return bytes.Compare(a[:], b[:]) < 0 }

func (a AccountID) String() string { return strings.ToUpper(hex.EncodeToString(a[:])) }

// Currency is a 160-bit currency code. The zero value is XRP.
type Currency [20]byte

// NoCurrency is the reserved "no currency" code.
var NoCurrency = Currency{19: 1}

// BadCurrency is "XRP" written as an ISO code, which is never a valid issue.
var BadCurrency = Currency{12: 'X', 13: 'R', 14: 'P'}

func (c Currency) IsXRP() bool { return c == Currency{} }

func (c Currency) Less(o Currency) bool { return bytes.Compare(c[:], o[:]) < 0 }

func (c Currency) String() string {
	if c.IsXRP() {
		return "XRP"
	}
	iso := true
	for i, b := range c {
		if (i < 12 || i > 14) && b != 0 {
			iso = false
			break
		}
	}
	if iso {
		return string(c[12:15])
	}
	return strings.ToUpper(hex.EncodeToString(c[:]))
}

// Issue names an asset: a currency plus the account that issues it.
// For XRP the account is zero.
type Issue struct {
	Currency Currency
	Account  AccountID
}

func (i Issue) IsXRP() bool { return i.Currency.IsXRP() }

// Less orders issues by currency, then account.
func (i Issue) Less(o Issue) bool {
	if i.Currency != o.Currency {
		return i.Currency.Less(o.Currency)
	}
	return i.Account.Less(o.Account)
}

// ChainType selects one side of a cross-chain bridge.
type ChainType int

const (
	ChainLocking ChainType = iota
	ChainIssuing
)

// SrcChain returns the chain a transfer originates on.
func SrcChain(wasLockingChainSend bool) ChainType {
	if wasLockingChainSend {
		return ChainLocking
	}
	return ChainIssuing
}

// XChainBridge identifies a bridge by its two door accounts and the issue
// bridged on each side.
type XChainBridge struct {
	LockingChainDoor  AccountID
	LockingChainIssue Issue
	IssuingChainDoor  AccountID
	IssuingChainIssue Issue
}

func (b XChainBridge) Door(ct ChainType) AccountID {
	if ct == ChainLocking {
		return b.LockingChainDoor
	}
	return b.IssuingChainDoor
}

func (b XChainBridge) Issue(ct ChainType) Issue {
	if ct == ChainLocking {
		return b.LockingChainIssue
	}
	return b.IssuingChainIssue
}
