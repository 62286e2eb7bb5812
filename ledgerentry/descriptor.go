package ledgerentry

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/kennyzlei/rippled/addresscodec"
	"github.com/kennyzlei/rippled/ledger"
)

// errDescriptor marks a nested issue or bridge descriptor that did not
// parse. Validators map it to malformedRequest.
var errDescriptor = errors.New("invalid descriptor")

func descriptorError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errDescriptor}, args...)...)
}

// parseIssue reads {"currency": ..., "issuer": ...}. XRP takes no issuer;
// every other currency needs a valid one.
func parseIssue(v field) (ledger.Issue, error) {
	if !v.isObject() {
		return ledger.Issue{}, descriptorError("issue must be an object")
	}
	cur, iss := v.get(fieldCurrency), v.get(fieldIssuer)
	if !cur.isString() {
		return ledger.Issue{}, descriptorError("issue currency must be a string")
	}
	c, err := addresscodec.ParseCurrency(cur.r.Str)
	if err != nil || c == ledger.BadCurrency || c == ledger.NoCurrency {
		return ledger.Issue{}, descriptorError("issue currency %q is not valid", cur.r.Str)
	}
	if c.IsXRP() {
		if !iss.isNull() {
			return ledger.Issue{}, descriptorError("XRP issue has an issuer")
		}
		return ledger.Issue{}, nil
	}
	if !iss.isString() {
		return ledger.Issue{}, descriptorError("issue issuer must be a string")
	}
	id, err := addresscodec.DecodeAccountID(iss.r.Str)
	if err != nil {
		return ledger.Issue{}, descriptorError("issue issuer %q is not a valid account", iss.r.Str)
	}
	return ledger.Issue{Currency: c, Account: id}, nil
}

var bridgeFields = map[string]struct{}{
	fieldLockingChainDoor:  {},
	fieldLockingChainIssue: {},
	fieldIssuingChainDoor:  {},
	fieldIssuingChainIssue: {},
}

// parseBridge reads a bridge descriptor: both doors and both issues, and
// nothing else.
func parseBridge(v field) (ledger.XChainBridge, error) {
	var b ledger.XChainBridge
	if !v.isObject() {
		return b, descriptorError("bridge must be an object")
	}
	var extra string
	v.r.ForEach(func(k, _ gjson.Result) bool {
		if _, ok := bridgeFields[k.Str]; !ok {
			extra = k.Str
			return false
		}
		return true
	})
	if extra != "" {
		return b, descriptorError("bridge has unexpected field %q", extra)
	}
	locking, issuing := v.get(fieldLockingChainDoor), v.get(fieldIssuingChainDoor)
	if !locking.isString() || !issuing.isString() {
		return b, descriptorError("bridge doors must be strings")
	}
	var err error
	if b.LockingChainDoor, err = addresscodec.DecodeAccountID(locking.r.Str); err != nil {
		return b, descriptorError("bridge LockingChainDoor is not a valid account")
	}
	if b.IssuingChainDoor, err = addresscodec.DecodeAccountID(issuing.r.Str); err != nil {
		return b, descriptorError("bridge IssuingChainDoor is not a valid account")
	}
	if b.LockingChainIssue, err = parseIssue(v.get(fieldLockingChainIssue)); err != nil {
		return b, err
	}
	if b.IssuingChainIssue, err = parseIssue(v.get(fieldIssuingChainIssue)); err != nil {
		return b, err
	}
	return b, nil
}
