package ledger

import (
	"strings"
	"testing"
)

func TestParseKey(t *testing.T) {
	lower := strings.Repeat("ab", 32)
	k, ok := ParseKey(lower)
	if !ok {
		t.Fatalf("ParseKey(%q) failed", lower)
	}
	if k.String() != strings.ToUpper(lower) {
		t.Fatalf("String: got %s", k.String())
	}
	if _, ok := ParseKey(strings.ToUpper(lower)); !ok {
		t.Fatalf("upper-case hex rejected")
	}

	for _, bad := range []string{
		"",
		strings.Repeat("a", 63),
		strings.Repeat("a", 65),
		strings.Repeat("g", 64),
		" " + strings.Repeat("a", 63),
	} {
		if _, ok := ParseKey(bad); ok {
			t.Fatalf("ParseKey(%q) accepted", bad)
		}
	}
}

func TestCurrencyString(t *testing.T) {
	if got := (Currency{}).String(); got != "XRP" {
		t.Fatalf("zero currency: got %s", got)
	}
	usd := Currency{12: 'U', 13: 'S', 14: 'D'}
	if got := usd.String(); got != "USD" {
		t.Fatalf("iso currency: got %s", got)
	}
	raw := Currency{0: 0x80, 19: 0x01}
	if got := raw.String(); len(got) != 40 {
		t.Fatalf("raw currency should render as 40 hex chars, got %s", got)
	}
}

func TestBridgeDoorSelection(t *testing.T) {
	b := XChainBridge{
		LockingChainDoor: AccountID{0: 1},
		IssuingChainDoor: AccountID{0: 2},
	}
	if b.Door(SrcChain(true)) != b.LockingChainDoor {
		t.Fatalf("locking send should select locking door")
	}
	if b.Door(SrcChain(false)) != b.IssuingChainDoor {
		t.Fatalf("issuing send should select issuing door")
	}
}
