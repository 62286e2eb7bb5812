// Package keylet derives the canonical key of every ledger object type.
//
// Keys are SHA-512-half digests (the first 256 bits of SHA-512) over a
// 16-bit namespace followed by the object's identifying fields. Derivation
// is pure and deterministic; it never consults ledger state.
package keylet

import (
	"encoding/binary"

	"github.com/multiformats/go-multihash"

	"github.com/kennyzlei/rippled/ledger"
)

// namespaces
const (
	spaceAccount                    uint16 = 'a'
	spaceDirNode                    uint16 = 'd'
	spaceTrustLine                  uint16 = 'r'
	spaceOffer                      uint16 = 'o'
	spaceOwnerDir                   uint16 = 'O'
	spaceEscrow                     uint16 = 'u'
	spaceTicket                     uint16 = 'T'
	spaceCheck                      uint16 = 'C'
	spaceDepositPreauth             uint16 = 'p'
	spacePaymentChannel             uint16 = 'x'
	spaceAMM                        uint16 = 'A'
	spaceBridge                     uint16 = 'H'
	spaceXChainClaimID              uint16 = 'Q'
	spaceXChainCreateAccountClaimID uint16 = 'K'
	spaceDID                        uint16 = 'I'
	spaceOracle                     uint16 = 'R'
)

type hasher struct {
	buf []byte
}

func newHasher(space uint16) *hasher {
	h := &hasher{buf: make([]byte, 0, 128)}
	return h.u16(space)
}

func (h *hasher) u16(v uint16) *hasher {
	h.buf = binary.BigEndian.AppendUint16(h.buf, v)
	return h
}

func (h *hasher) u32(v uint32) *hasher {
	h.buf = binary.BigEndian.AppendUint32(h.buf, v)
	return h
}

func (h *hasher) u64(v uint64) *hasher {
	h.buf = binary.BigEndian.AppendUint64(h.buf, v)
	return h
}

func (h *hasher) raw(b []byte) *hasher {
	h.buf = append(h.buf, b...)
	return h
}

func (h *hasher) account(a ledger.AccountID) *hasher { return h.raw(a[:]) }

func (h *hasher) currency(c ledger.Currency) *hasher { return h.raw(c[:]) }

func (h *hasher) issue(i ledger.Issue) *hasher { return h.currency(i.Currency).account(i.Account) }

func (h *hasher) key(k ledger.Key) *hasher { return h.raw(k[:]) }

func (h *hasher) sum() ledger.Key {
	return sha512Half(h.buf)
}

// sha512Half truncates a SHA2-512 multihash to 32 bytes.
func sha512Half(data []byte) ledger.Key {
	mh, err := multihash.Sum(data, multihash.SHA2_512, 32)
	if err != nil {
		// Sum only fails for unknown codes or lengths beyond the digest size.
		panic("keylet: sha512 multihash: " + err.Error())
	}
	dec, err := multihash.Decode(mh)
	if err != nil {
		panic("keylet: decode multihash: " + err.Error())
	}
	var k ledger.Key
	copy(k[:], dec.Digest)
	return k
}

// Account is the account root of id: namespace 'a' over the account.
func Account(id ledger.AccountID) ledger.Key {
	return newHasher(spaceAccount).account(id).sum()
}

// OwnerDir is the root page of the directory of objects owned by id.
func OwnerDir(id ledger.AccountID) ledger.Key {
	return newHasher(spaceOwnerDir).account(id).sum()
}

// Page returns page index of the directory rooted at root. Page 0 is the
// root itself.
func Page(root ledger.Key, index uint64) ledger.Key {
	if index == 0 {
		return root
	}
	return newHasher(spaceDirNode).key(root).u64(index).sum()
}

// Line is the trust line between two accounts in one currency. The result
// does not depend on argument order.
func Line(a, b ledger.AccountID, c ledger.Currency) ledger.Key {
	if b.Less(a) {
		a, b = b, a
	}
	return newHasher(spaceTrustLine).account(a).account(b).currency(c).sum()
}

// Offer is the offer created by id at sequence seq: namespace 'o'.
func Offer(id ledger.AccountID, seq uint32) ledger.Key {
	return newHasher(spaceOffer).account(id).u32(seq).sum()
}

// Escrow is the escrow created by id at sequence seq: namespace 'u'.
func Escrow(id ledger.AccountID, seq uint32) ledger.Key {
	return newHasher(spaceEscrow).account(id).u32(seq).sum()
}

// Ticket is the ticket id created at sequence seq: namespace 'T'.
func Ticket(id ledger.AccountID, seq uint32) ledger.Key {
	return newHasher(spaceTicket).account(id).u32(seq).sum()
}

// Check is the check written by id at sequence seq: namespace 'C'.
func Check(id ledger.AccountID, seq uint32) ledger.Key {
	return newHasher(spaceCheck).account(id).u32(seq).sum()
}

// PayChannel is the channel from src to dst opened at sequence seq:
// namespace 'x' over (src, dst, seq).
func PayChannel(src, dst ledger.AccountID, seq uint32) ledger.Key {
	return newHasher(spacePaymentChannel).account(src).account(dst).u32(seq).sum()
}

// DepositPreauth is owner's preauthorization of authorized: namespace 'p'
// over (owner, authorized).
func DepositPreauth(owner, authorized ledger.AccountID) ledger.Key {
	return newHasher(spaceDepositPreauth).account(owner).account(authorized).sum()
}

// AMM is the pool for an asset pair. The result does not depend on argument
// order.
func AMM(a, b ledger.Issue) ledger.Key {
	if b.Less(a) {
		a, b = b, a
	}
	return newHasher(spaceAMM).account(a.Account).currency(a.Currency).account(b.Account).currency(b.Currency).sum()
}

// Bridge is the bridge object owned by the door account on chain ct.
func Bridge(b ledger.XChainBridge, ct ledger.ChainType) ledger.Key {
	return newHasher(spaceBridge).account(b.Door(ct)).issue(b.Issue(ct)).sum()
}

// XChainClaimID is claim id seq on bridge b: namespace 'Q' over both
// doors and issues, then seq.
func XChainClaimID(b ledger.XChainBridge, seq uint64) ledger.Key {
	return bridgeSeq(spaceXChainClaimID, b, seq)
}

// XChainCreateAccountClaimID is create-account claim seq on bridge b:
// namespace 'K' over both doors and issues, then seq.
func XChainCreateAccountClaimID(b ledger.XChainBridge, seq uint64) ledger.Key {
	return bridgeSeq(spaceXChainCreateAccountClaimID, b, seq)
}

func bridgeSeq(space uint16, b ledger.XChainBridge, seq uint64) ledger.Key {
	return newHasher(space).
		account(b.LockingChainDoor).issue(b.LockingChainIssue).
		account(b.IssuingChainDoor).issue(b.IssuingChainIssue).
		u64(seq).sum()
}

// DID is the DID object of id: namespace 'I'.
func DID(id ledger.AccountID) ledger.Key {
	return newHasher(spaceDID).account(id).sum()
}

// Oracle is id's price oracle with the given document id: namespace 'R'
// over (account, documentID).
func Oracle(id ledger.AccountID, documentID uint32) ledger.Key {
	return newHasher(spaceOracle).account(id).u32(documentID).sum()
}

// NFTokenPage is the page of owner's tokens that would hold tokenID: the
// owner's 160 bits followed by the low 96 bits of the token identifier.
func NFTokenPage(owner ledger.AccountID, tokenID ledger.Key) ledger.Key {
	var k ledger.Key
	copy(k[:20], owner[:])
	copy(k[20:], tokenID[20:])
	return k
}

// NFTokenPageMax is the last page of owner's token chain.
func NFTokenPageMax(owner ledger.AccountID) ledger.Key {
	var max ledger.Key
	for i := range max {
		max[i] = 0xff
	}
	return NFTokenPage(owner, max)
}
