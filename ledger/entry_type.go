package ledger

import "fmt"

// EntryType is the runtime type tag carried by every ledger object.
type EntryType uint16

const (
	// TypeAny is a wildcard accepted by lookups that do not imply a type.
	TypeAny EntryType = 0

	TypeNFTokenOffer                    EntryType = 0x0037
	TypeCheck                           EntryType = 0x0043
	TypeDID                             EntryType = 0x0049
	TypeNegativeUNL                     EntryType = 0x004e
	TypeNFTokenPage                     EntryType = 0x0050
	TypeSignerList                      EntryType = 0x0053
	TypeTicket                          EntryType = 0x0054
	TypeAccountRoot                     EntryType = 0x0061
	TypeDirectoryNode                   EntryType = 0x0064
	TypeAmendments                      EntryType = 0x0066
	TypeLedgerHashes                    EntryType = 0x0068
	TypeBridge                          EntryType = 0x0069
	TypeOffer                           EntryType = 0x006f
	TypeDepositPreauth                  EntryType = 0x0070
	TypeXChainOwnedClaimID              EntryType = 0x0071
	TypeRippleState                     EntryType = 0x0072
	TypeFeeSettings                     EntryType = 0x0073
	TypeXChainOwnedCreateAccountClaimID EntryType = 0x0074
	TypeEscrow                          EntryType = 0x0075
	TypePayChannel                      EntryType = 0x0078
	TypeAMM                             EntryType = 0x0079
	TypeOracle                          EntryType = 0x0080
)

var entryTypeNames = map[EntryType]string{
	TypeNFTokenOffer:                    "NFTokenOffer",
	TypeCheck:                           "Check",
	TypeDID:                             "DID",
	TypeNegativeUNL:                     "NegativeUNL",
	TypeNFTokenPage:                     "NFTokenPage",
	TypeSignerList:                      "SignerList",
	TypeTicket:                          "Ticket",
	TypeAccountRoot:                     "AccountRoot",
	TypeDirectoryNode:                   "DirectoryNode",
	TypeAmendments:                      "Amendments",
	TypeLedgerHashes:                    "LedgerHashes",
	TypeBridge:                          "Bridge",
	TypeOffer:                           "Offer",
	TypeDepositPreauth:                  "DepositPreauth",
	TypeXChainOwnedClaimID:              "XChainOwnedClaimID",
	TypeRippleState:                     "RippleState",
	TypeFeeSettings:                     "FeeSettings",
	TypeXChainOwnedCreateAccountClaimID: "XChainOwnedCreateAccountClaimID",
	TypeEscrow:                          "Escrow",
	TypePayChannel:                      "PayChannel",
	TypeAMM:                             "AMM",
	TypeOracle:                          "Oracle",
}

var entryTypesByName = func() map[string]EntryType {
	m := make(map[string]EntryType, len(entryTypeNames))
	for t, n := range entryTypeNames {
		m[n] = t
	}
	return m
}()

func (t EntryType) String() string {
	if t == TypeAny {
		return "Any"
	}
	if n, ok := entryTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(0x%04x)", uint16(t))
}

// Known reports whether t is a concrete, registered entry type.
func (t EntryType) Known() bool {
	_, ok := entryTypeNames[t]
	return ok
}

// ParseEntryType maps a LedgerEntryType name to its code.
func ParseEntryType(name string) (EntryType, bool) {
	t, ok := entryTypesByName[name]
	return t, ok
}
