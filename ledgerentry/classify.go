package ledgerentry

import (
	"github.com/kennyzlei/rippled/ledger"
)

// Request fields.
const (
	fieldIndex               = "index"
	fieldAccountRoot         = "account_root"
	fieldCheck               = "check"
	fieldDepositPreauth      = "deposit_preauth"
	fieldDirectory           = "directory"
	fieldEscrow              = "escrow"
	fieldOffer               = "offer"
	fieldPaymentChannel      = "payment_channel"
	fieldRippleState         = "ripple_state"
	fieldTicket              = "ticket"
	fieldNFTPage             = "nft_page"
	fieldAMM                 = "amm"
	fieldBridge              = "bridge"
	fieldBridgeAccount       = "bridge_account"
	fieldXChainClaimID       = "xchain_owned_claim_id"
	fieldXChainCreateAccount = "xchain_owned_create_account_claim_id"
	fieldDID                 = "did"
	fieldOracle              = "oracle"
	fieldParams              = "params"
	fieldBinary              = "binary"

	fieldAccount          = "account"
	fieldAccounts         = "accounts"
	fieldAsset            = "asset"
	fieldAsset2           = "asset2"
	fieldAuthorized       = "authorized"
	fieldCurrency         = "currency"
	fieldDirRoot          = "dir_root"
	fieldIssuer           = "issuer"
	fieldOracleDocumentID = "oracle_document_id"
	fieldOwner            = "owner"
	fieldSeq              = "seq"
	fieldSubIndex         = "sub_index"
	fieldTicketSeq        = "ticket_seq"

	fieldLockingChainDoor  = "LockingChainDoor"
	fieldLockingChainIssue = "LockingChainIssue"
	fieldIssuingChainDoor  = "IssuingChainDoor"
	fieldIssuingChainIssue = "IssuingChainIssue"
)

// deriveFunc validates the value of a selecting field and returns its key.
// req is the whole request for shapes that read sibling fields.
type deriveFunc func(req, v field) (ledger.Key, error)

type locator struct {
	field    string
	variant  Variant
	expected ledger.EntryType
	derive   deriveFunc
}

// locators is checked in order; the first present field wins even when a
// request carries several.
var locators = [...]locator{
	{fieldIndex, ByIndex, ledger.TypeAny, deriveIndex},
	{fieldAccountRoot, AccountRoot, ledger.TypeAccountRoot, deriveAccountRoot},
	{fieldCheck, Check, ledger.TypeCheck, deriveHexOnly},
	{fieldDepositPreauth, DepositPreauth, ledger.TypeDepositPreauth, deriveDepositPreauth},
	{fieldDirectory, Directory, ledger.TypeDirectoryNode, deriveDirectory},
	{fieldEscrow, Escrow, ledger.TypeEscrow, deriveEscrow},
	{fieldOffer, Offer, ledger.TypeOffer, deriveOffer},
	{fieldPaymentChannel, PaymentChannel, ledger.TypePayChannel, deriveHexOnly},
	{fieldRippleState, RippleState, ledger.TypeRippleState, deriveRippleState},
	{fieldTicket, Ticket, ledger.TypeTicket, deriveTicket},
	{fieldNFTPage, NFTPage, ledger.TypeNFTokenPage, deriveNFTPage},
	{fieldAMM, AMM, ledger.TypeAMM, deriveAMM},
	{fieldBridge, Bridge, ledger.TypeBridge, deriveBridge},
	{fieldXChainClaimID, XChainOwnedClaimID, ledger.TypeXChainOwnedClaimID, deriveXChainClaimID},
	{fieldXChainCreateAccount, XChainOwnedCreateAccountClaimID, ledger.TypeXChainOwnedCreateAccountClaimID, deriveXChainCreateAccountClaimID},
	{fieldDID, DID, ledger.TypeDID, deriveDID},
	{fieldOracle, Oracle, ledger.TypeOracle, deriveOracle},
}

// classify picks the locator for req. ok is false when no selecting field
// is present.
func classify(req field) (locator, bool) {
	for _, l := range locators {
		if req.has(l.field) {
			return l, true
		}
	}
	return locator{}, false
}

// legacyPositional handles requests with none of the selecting fields: a
// "params" array holding exactly one string is read as a raw index.
func legacyPositional(req field) (ledger.Key, bool, error) {
	p := req.get(fieldParams)
	if !p.isArray() || p.len() != 1 || !p.at(0).isString() {
		return ledger.Key{}, false, nil
	}
	k, err := hexKey(p.at(0))
	return k, true, err
}
