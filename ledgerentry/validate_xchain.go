package ledgerentry

import (
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/kennyzlei/rippled/keylet"
	"github.com/kennyzlei/rippled/ledger"
)

// deriveBridge reads the bridge descriptor together with the sibling
// bridge_account field, which must name one of the two doors. Every failure
// is reported as malformedRequest.
func deriveBridge(req, v field) (ledger.Key, error) {
	if v.isString() {
		return hexKey(v)
	}
	acct := req.get(fieldBridgeAccount)
	if !acct.isString() {
		return ledger.Key{}, malformed("bridge needs a string bridge_account")
	}
	id, ok, _ := account(acct)
	if !ok || id.IsZero() {
		return ledger.Key{}, malformed("bridge_account is not a valid account")
	}
	b, err := parseBridge(v)
	if err != nil {
		return ledger.Key{}, wrapError(KindMalformedRequest, err, "bridge")
	}
	chain := ledger.SrcChain(id == b.LockingChainDoor)
	if id != b.Door(chain) {
		return ledger.Key{}, malformed("bridge_account is not a door of the bridge")
	}
	return keylet.Bridge(b, chain), nil
}

func deriveXChainClaimID(_, v field) (ledger.Key, error) {
	return deriveXChainSeq(v, fieldXChainClaimID, keylet.XChainClaimID)
}

func deriveXChainCreateAccountClaimID(_, v field) (ledger.Key, error) {
	return deriveXChainSeq(v, fieldXChainCreateAccount, keylet.XChainCreateAccountClaimID)
}

// deriveXChainSeq reads either a raw index or a bridge spelled out field by
// field plus a sequence number stored under seqField.
func deriveXChainSeq(v field, seqField string, key func(ledger.XChainBridge, uint64) ledger.Key) (ledger.Key, error) {
	if v.isString() {
		return hexKey(v)
	}
	if !v.isObject() ||
		!v.get(fieldIssuingChainDoor).isString() ||
		!v.get(fieldLockingChainDoor).isString() ||
		!v.has(fieldIssuingChainIssue) ||
		!v.has(fieldLockingChainIssue) ||
		!v.has(seqField) {
		return ledger.Key{}, malformed("%s needs both doors, both issues and a sequence", seqField)
	}

	var b ledger.XChainBridge
	lockingOK, issuingOK := false, false
	b.LockingChainDoor, lockingOK, _ = account(v.get(fieldLockingChainDoor))
	b.IssuingChainDoor, issuingOK, _ = account(v.get(fieldIssuingChainDoor))
	if !lockingOK || !issuingOK {
		return ledger.Key{}, malformed("%s door is not a valid account", seqField)
	}
	var err error
	if b.LockingChainIssue, err = parseIssue(v.get(fieldLockingChainIssue)); err != nil {
		return ledger.Key{}, wrapError(KindMalformedRequest, err, "%s LockingChainIssue", seqField)
	}
	if b.IssuingChainIssue, err = parseIssue(v.get(fieldIssuingChainIssue)); err != nil {
		return ledger.Key{}, wrapError(KindMalformedRequest, err, "%s IssuingChainIssue", seqField)
	}

	seq := v.get(seqField)
	if !seq.isIntegral() {
		return ledger.Key{}, malformed("%s sequence must be an integer", seqField)
	}
	n, err := seq.uint32()
	if err != nil {
		return ledger.Key{}, err
	}
	return key(b, uint64(n)), nil
}

func deriveOracle(_, v field) (ledger.Key, error) {
	if !v.isObject() {
		return hexKey(v)
	}
	if !v.has(fieldOracleDocumentID) || !v.has(fieldAccount) {
		return ledger.Key{}, malformed("oracle needs account and oracle_document_id")
	}
	docID, docOK := documentID(v.get(fieldOracleDocumentID))
	id, ok, err := account(v.get(fieldAccount))
	if err != nil {
		return ledger.Key{}, err
	}
	if !ok || id.IsZero() {
		return ledger.Key{}, newError(KindMalformedAddress, "oracle account is not a valid account")
	}
	if !docOK {
		return ledger.Key{}, newError(KindMalformedDocumentID, "oracle_document_id %s is not an unsigned 32-bit integer", v.get(fieldOracleDocumentID).r.Raw)
	}
	return keylet.Oracle(id, docID), nil
}

// documentID accepts anything convertible to an unsigned 32-bit integer:
// null (zero), booleans, non-negative numbers in range, and decimal strings.
func documentID(v field) (uint32, bool) {
	switch v.r.Type {
	case gjson.Null:
		return 0, true
	case gjson.True:
		return 1, true
	case gjson.False:
		return 0, true
	case gjson.Number:
		if neg, mag, ok := integer(v.r.Raw); ok {
			if neg || mag > math.MaxUint32 {
				return 0, false
			}
			return uint32(mag), true
		}
		if v.r.Num < 0 || v.r.Num > math.MaxUint32 {
			return 0, false
		}
		return uint32(v.r.Num), true
	case gjson.String:
		n, err := strconv.ParseUint(v.r.Str, 10, 32)
		if err != nil {
			return 0, false
		}
		return uint32(n), true
	}
	return 0, false
}
