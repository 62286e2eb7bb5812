// Package cidutil fixes the content-address contract used by block storage:
// CIDv1, raw codec, sha2-256 multihash.
package cidutil

import (
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

var ErrUnsupportedCID = errors.New("cidutil: not a CIDv1 raw sha2-256 identifier")

// BlockID returns the CID of data under the block storage contract.
func BlockID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Digest returns the 32-byte sha2-256 digest carried by id.
func Digest(id cid.Cid) ([32]byte, error) {
	var out [32]byte
	if !id.Defined() || id.Version() != 1 || id.Type() != cid.Raw {
		return out, ErrUnsupportedCID
	}
	dec, err := multihash.Decode(id.Hash())
	if err != nil {
		return out, err
	}
	if dec.Code != multihash.SHA2_256 || len(dec.Digest) != len(out) {
		return out, ErrUnsupportedCID
	}
	copy(out[:], dec.Digest)
	return out, nil
}

// FromDigest rebuilds the block CID for a sha2-256 digest.
func FromDigest(digest [32]byte) (cid.Cid, error) {
	mh, err := multihash.Encode(digest[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}
