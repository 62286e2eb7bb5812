package ledgerentry

// Variant identifies the request shape a ledger_entry request used.
type Variant uint8

const (
	Unrecognized Variant = iota
	ByIndex
	AccountRoot
	Check
	DepositPreauth
	Directory
	Escrow
	Offer
	PaymentChannel
	RippleState
	Ticket
	NFTPage
	AMM
	Bridge
	XChainOwnedClaimID
	XChainOwnedCreateAccountClaimID
	DID
	Oracle
	LegacyPositional
)

var variantNames = [...]string{
	Unrecognized:                    "unrecognized",
	ByIndex:                         "index",
	AccountRoot:                     "account_root",
	Check:                           "check",
	DepositPreauth:                  "deposit_preauth",
	Directory:                       "directory",
	Escrow:                          "escrow",
	Offer:                           "offer",
	PaymentChannel:                  "payment_channel",
	RippleState:                     "ripple_state",
	Ticket:                          "ticket",
	NFTPage:                         "nft_page",
	AMM:                             "amm",
	Bridge:                          "bridge",
	XChainOwnedClaimID:              "xchain_owned_claim_id",
	XChainOwnedCreateAccountClaimID: "xchain_owned_create_account_claim_id",
	DID:                             "did",
	Oracle:                          "oracle",
	LegacyPositional:                "params",
}

// String returns the request field that selects the variant.
func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return "unrecognized"
}
