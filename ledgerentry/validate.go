package ledgerentry

import (
	"github.com/kennyzlei/rippled/addresscodec"
	"github.com/kennyzlei/rippled/keylet"
	"github.com/kennyzlei/rippled/ledger"
)

// hexKey reads a raw 64-digit hex index. The zero key is the "not computed"
// sentinel and is rejected like any other malformed index.
func hexKey(v field) (ledger.Key, error) {
	k, err := parseHex(v)
	if err != nil {
		return ledger.Key{}, err
	}
	if k.IsZero() {
		return ledger.Key{}, malformed("index is zero")
	}
	return k, nil
}

// parseHex reads 64 hex digits. The zero key is allowed.
func parseHex(v field) (ledger.Key, error) {
	s, err := v.str()
	if err != nil {
		return ledger.Key{}, err
	}
	k, ok := ledger.ParseKey(s)
	if !ok {
		return ledger.Key{}, malformed("%q is not a 64-digit hex index", s)
	}
	return k, nil
}

// account decodes a base58 account. ok is false when the text is not a
// valid address; err is set only for values with no string form.
func account(v field) (id ledger.AccountID, ok bool, err error) {
	s, err := v.str()
	if err != nil {
		return id, false, err
	}
	id, derr := addresscodec.DecodeAccountID(s)
	return id, derr == nil, nil
}

func deriveIndex(_, v field) (ledger.Key, error) { return hexKey(v) }

func deriveHexOnly(_, v field) (ledger.Key, error) { return hexKey(v) }

func deriveAccountRoot(_, v field) (ledger.Key, error) {
	id, ok, err := account(v)
	if err != nil {
		return ledger.Key{}, err
	}
	if !ok || id.IsZero() {
		return ledger.Key{}, newError(KindMalformedAddress, "account_root is not a valid account")
	}
	return keylet.Account(id), nil
}

func deriveDID(_, v field) (ledger.Key, error) {
	id, ok, err := account(v)
	if err != nil {
		return ledger.Key{}, err
	}
	if !ok || id.IsZero() {
		return ledger.Key{}, newError(KindMalformedAddress, "did is not a valid account")
	}
	return keylet.DID(id), nil
}

func deriveDepositPreauth(_, v field) (ledger.Key, error) {
	if !v.isObject() {
		if !v.isString() {
			return ledger.Key{}, malformed("deposit_preauth must be an index or an object")
		}
		return hexKey(v)
	}
	owner, authorized := v.get(fieldOwner), v.get(fieldAuthorized)
	if !owner.isString() || !authorized.isString() {
		return ledger.Key{}, malformed("deposit_preauth needs string owner and authorized")
	}
	o, ok, _ := account(owner)
	if !ok {
		return ledger.Key{}, newError(KindMalformedOwner, "deposit_preauth owner is not a valid account")
	}
	a, ok, _ := account(authorized)
	if !ok {
		return ledger.Key{}, newError(KindMalformedAuthorized, "deposit_preauth authorized is not a valid account")
	}
	return keylet.DepositPreauth(o, a), nil
}

func deriveDirectory(_, v field) (ledger.Key, error) {
	if v.isNull() {
		return ledger.Key{}, malformed("directory is null")
	}
	if !v.isObject() {
		return hexKey(v)
	}
	var sub uint64
	if v.has(fieldSubIndex) {
		si := v.get(fieldSubIndex)
		if !si.isIntegral() {
			return ledger.Key{}, malformed("sub_index must be an integer")
		}
		n, err := si.uint32()
		if err != nil {
			return ledger.Key{}, err
		}
		sub = uint64(n)
	}

	switch {
	case v.has(fieldDirRoot):
		if v.has(fieldOwner) {
			return ledger.Key{}, malformed("directory takes dir_root or owner, not both")
		}
		root, err := parseHex(v.get(fieldDirRoot))
		if err != nil {
			return ledger.Key{}, err
		}
		return keylet.Page(root, sub), nil
	case v.has(fieldOwner):
		id, ok, err := account(v.get(fieldOwner))
		if err != nil {
			return ledger.Key{}, err
		}
		if !ok {
			return ledger.Key{}, newError(KindMalformedAddress, "directory owner is not a valid account")
		}
		return keylet.Page(keylet.OwnerDir(id), sub), nil
	}
	return ledger.Key{}, malformed("directory needs dir_root or owner")
}

// accountSeq reads the {<account>, <seq>} pair shared by escrow, offer and
// ticket requests. badAccount is the kind reported for an undecodable
// account.
func accountSeq(v field, accountField, seqField string, badAccount Kind) (ledger.AccountID, uint32, error) {
	if !v.has(accountField) || !v.has(seqField) || !v.get(seqField).isIntegral() {
		return ledger.AccountID{}, 0, malformed("%s and integer %s are required", accountField, seqField)
	}
	id, ok, err := account(v.get(accountField))
	if err != nil {
		return ledger.AccountID{}, 0, err
	}
	if !ok {
		return ledger.AccountID{}, 0, newError(badAccount, "%s is not a valid account", accountField)
	}
	seq, err := v.get(seqField).uint32()
	if err != nil {
		return ledger.AccountID{}, 0, err
	}
	return id, seq, nil
}

func deriveEscrow(_, v field) (ledger.Key, error) {
	if !v.isObject() {
		return hexKey(v)
	}
	id, seq, err := accountSeq(v, fieldOwner, fieldSeq, KindMalformedOwner)
	if err != nil {
		return ledger.Key{}, err
	}
	return keylet.Escrow(id, seq), nil
}

func deriveOffer(_, v field) (ledger.Key, error) {
	if !v.isObject() {
		return hexKey(v)
	}
	id, seq, err := accountSeq(v, fieldAccount, fieldSeq, KindMalformedAddress)
	if err != nil {
		return ledger.Key{}, err
	}
	return keylet.Offer(id, seq), nil
}

func deriveTicket(_, v field) (ledger.Key, error) {
	if !v.isObject() {
		return hexKey(v)
	}
	id, seq, err := accountSeq(v, fieldAccount, fieldTicketSeq, KindMalformedAddress)
	if err != nil {
		return ledger.Key{}, err
	}
	return keylet.Ticket(id, seq), nil
}

func deriveRippleState(_, v field) (ledger.Key, error) {
	accts := v.get(fieldAccounts)
	if !v.isObject() || !v.has(fieldCurrency) || !accts.isArray() || accts.len() != 2 ||
		!accts.at(0).isString() || !accts.at(1).isString() ||
		accts.at(0).r.Str == accts.at(1).r.Str {
		return ledger.Key{}, malformed("ripple_state needs a currency and two distinct accounts")
	}
	a, okA, _ := account(accts.at(0))
	b, okB, _ := account(accts.at(1))
	if !okA || !okB {
		return ledger.Key{}, newError(KindMalformedAddress, "ripple_state account is not a valid account")
	}
	code, err := v.get(fieldCurrency).str()
	if err != nil {
		return ledger.Key{}, err
	}
	cur, err := addresscodec.ParseCurrency(code)
	if err != nil {
		return ledger.Key{}, wrapError(KindMalformedCurrency, err, "ripple_state currency %q", code)
	}
	return keylet.Line(a, b, cur), nil
}

func deriveNFTPage(_, v field) (ledger.Key, error) {
	if !v.isString() {
		return ledger.Key{}, malformed("nft_page must be an index")
	}
	return hexKey(v)
}

func deriveAMM(_, v field) (ledger.Key, error) {
	if !v.isObject() {
		return hexKey(v)
	}
	if !v.has(fieldAsset) || !v.has(fieldAsset2) {
		return ledger.Key{}, malformed("amm needs asset and asset2")
	}
	a, err := parseIssue(v.get(fieldAsset))
	if err != nil {
		return ledger.Key{}, wrapError(KindMalformedRequest, err, "amm asset")
	}
	b, err := parseIssue(v.get(fieldAsset2))
	if err != nil {
		return ledger.Key{}, wrapError(KindMalformedRequest, err, "amm asset2")
	}
	return keylet.AMM(a, b), nil
}
