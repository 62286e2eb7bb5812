// Package addresscodec decodes and encodes classic addresses and currency
// codes.
//
// A classic address is base58 (XRPL alphabet) over
// version(0x00) || AccountID(20) || checksum(4), where the checksum is the
// first four bytes of SHA-256(SHA-256(version || AccountID)).
package addresscodec

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // address derivation is defined over RIPEMD-160

	"github.com/kennyzlei/rippled/ledger"
)

const (
	alphabet         = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"
	accountIDVersion = 0x00
	checksumLen      = 4
)

var xrplAlphabet = base58.NewAlphabet(alphabet)

var (
	ErrInvalidAddress  = errors.New("addresscodec: invalid address")
	ErrInvalidCurrency = errors.New("addresscodec: invalid currency code")
)

// DecodeAccountID parses a classic address. The zero account decodes
// successfully; callers that must reject it check IsZero themselves.
func DecodeAccountID(s string) (ledger.AccountID, error) {
	if s == "" || strings.TrimSpace(s) != s {
		return ledger.AccountID{}, ErrInvalidAddress
	}
	raw, err := base58.DecodeAlphabet(s, xrplAlphabet)
	if err != nil {
		return ledger.AccountID{}, ErrInvalidAddress
	}
	var id ledger.AccountID
	if len(raw) != 1+len(id)+checksumLen || raw[0] != accountIDVersion {
		return ledger.AccountID{}, ErrInvalidAddress
	}
	body, sum := raw[:1+len(id)], raw[1+len(id):]
	if !bytes.Equal(checksum(body), sum) {
		return ledger.AccountID{}, ErrInvalidAddress
	}
	copy(id[:], body[1:])
	return id, nil
}

// EncodeAccountID renders id as a classic address.
func EncodeAccountID(id ledger.AccountID) string {
	body := make([]byte, 0, 1+len(id)+checksumLen)
	body = append(body, accountIDVersion)
	body = append(body, id[:]...)
	body = append(body, checksum(body)...)
	return base58.EncodeAlphabet(body, xrplAlphabet)
}

// AccountIDFromPublicKey derives the account identifier controlled by a
// serialized public key: RIPEMD-160(SHA-256(pk)).
func AccountIDFromPublicKey(pub []byte) ledger.AccountID {
	inner := sha256.Sum256(pub)
	h := ripemd160.New()
	_, _ = h.Write(inner[:])
	var id ledger.AccountID
	copy(id[:], h.Sum(nil))
	return id
}

func checksum(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:checksumLen]
}

// ParseCurrency parses a currency code.
//
//   - "" and "XRP" are the native currency (zero).
//   - any three characters are an ISO-style code, upper-cased, stored at
//     bytes 12..14.
//   - 40 hex digits are taken verbatim.
//
// Note that "xrp" is accepted and yields ledger.BadCurrency; rejecting it is
// left to the callers that build issues.
func ParseCurrency(code string) (ledger.Currency, error) {
	var c ledger.Currency
	switch {
	case code == "" || code == "XRP":
		return c, nil
	case len(code) == 3:
		copy(c[12:15], strings.ToUpper(code))
		return c, nil
	case len(code) == 2*len(c):
		if _, err := hex.Decode(c[:], []byte(code)); err != nil {
			return ledger.Currency{}, ErrInvalidCurrency
		}
		return c, nil
	default:
		return ledger.Currency{}, ErrInvalidCurrency
	}
}
