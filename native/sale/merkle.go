package sale

import (
	"bytes"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// LeafHash computes the whitelist leaf for an address and its allotted
// amount: keccak256 of the packed address and 32-byte amount.
func LeafHash(addr [20]byte, amount *big.Int) [32]byte {
	buf := make([]byte, 0, 52)
	buf = append(buf, addr[:]...)
	var word [32]byte
	if amount != nil {
		amount.FillBytes(word[:])
	}
	buf = append(buf, word[:]...)
	var leaf [32]byte
	copy(leaf[:], ethcrypto.Keccak256(buf))
	return leaf
}

// VerifyProof checks a membership proof against the root using sorted-pair
// interior hashing, so proofs do not need to carry direction bits.
func VerifyProof(root, leaf [32]byte, proof [][32]byte) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

func hashPair(a, b [32]byte) [32]byte {
	var out [32]byte
	if bytes.Compare(a[:], b[:]) <= 0 {
		copy(out[:], ethcrypto.Keccak256(a[:], b[:]))
	} else {
		copy(out[:], ethcrypto.Keccak256(b[:], a[:]))
	}
	return out
}
