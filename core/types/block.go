// Package types defines the wire-level block and transaction shapes and
// the tagged-union operation list every evaluator dispatches on.
package types

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// BlockID is the first 160 bits of SHA-256 of the header, with the high 32
// bits overwritten by the big-endian block number, matching spec.md §6.
type BlockID [20]byte

// Number extracts the block number encoded into a BlockID's high 32 bits.
func (id BlockID) Number() uint32 {
	return binary.BigEndian.Uint32(id[:4])
}

// Extensions carries the optional header fields a witness reports when its
// view of the protocol differs from the chain's recorded witness record.
type Extensions struct {
	Version      *[3]uint16 `rlp:"nil"`
	HardforkVote *uint32    `rlp:"nil"`
}

// Header is the signed portion of a block.
type Header struct {
	PreviousID            BlockID
	Timestamp             uint64
	Witness               string
	TransactionMerkleRoot [32]byte
	Ext                   Extensions
}

// SigningBytes returns the RLP encoding of the header, the payload that
// gets ECDSA-signed and hashed into the block id.
func (h *Header) SigningBytes() []byte {
	b, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic(err)
	}
	return b
}

// ID computes the block id for a header at the given block number.
func (h *Header) ID(blockNumber uint64) BlockID {
	sum := sha256.Sum256(h.SigningBytes())
	var id BlockID
	copy(id[:], sum[:20])
	binary.BigEndian.PutUint32(id[:4], uint32(blockNumber))
	return id
}

// Block is a header plus its signature and ordered transaction list.
type Block struct {
	Header       Header
	WitnessSig   []byte
	Transactions []*Transaction
}

// Number is the block height carried alongside the block by the caller
// (blocks do not self-report height; it is derived from chain position).
func (b *Block) ID(blockNumber uint64) BlockID { return b.Header.ID(blockNumber) }

// TransactionMerkleRoot folds every transaction's digest into a binary
// Merkle tree, duplicating the final element on odd levels, and returns
// the root. An empty transaction list roots to the zero digest.
func TransactionMerkleRoot(trxs []*Transaction) [32]byte {
	if len(trxs) == 0 {
		return [32]byte{}
	}
	layer := make([][32]byte, len(trxs))
	for i, t := range trxs {
		d, err := t.Digest()
		if err != nil {
			panic(err)
		}
		layer[i] = d
	}
	for len(layer) > 1 {
		if len(layer)%2 == 1 {
			layer = append(layer, layer[len(layer)-1])
		}
		next := make([][32]byte, len(layer)/2)
		for i := range next {
			next[i] = sha256.Sum256(append(append([]byte{}, layer[2*i][:]...), layer[2*i+1][:]...))
		}
		layer = next
	}
	return layer[0]
}

// RecoverHeaderSigner recovers the uncompressed public key behind sig over
// header's signing bytes, the same recoverable-ECDSA scheme
// Transaction.AddSignature uses.
func RecoverHeaderSigner(header *Header, sig []byte) ([]byte, error) {
	digest := sha256.Sum256(header.SigningBytes())
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return nil, err
	}
	return crypto.FromECDSAPub(pub), nil
}

// SignHeader signs header's digest with key, the counterpart to
// RecoverHeaderSigner.
func SignHeader(header *Header, key *ecdsa.PrivateKey) ([]byte, error) {
	digest := sha256.Sum256(header.SigningBytes())
	return crypto.Sign(digest[:], key)
}
