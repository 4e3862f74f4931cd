package sale

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// TierDenominator is the fixed probability denominator for rarity draws.
const TierDenominator = 1000

// Tier identifies one of the three rarity collections.
type Tier uint8

const (
	TierBronze Tier = iota
	TierSilver
	TierGold
)

// TierCount is the number of rarity tiers.
const TierCount = 3

func (t Tier) String() string {
	switch t {
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	default:
		return "unknown"
	}
}

// Thresholds holds the cumulative probability boundary of each tier. The
// values must be non-decreasing and the final tier must land exactly on the
// denominator, so every draw maps to a tier.
type Thresholds [TierCount]uint16

// NewThresholds validates and returns a cumulative threshold set.
func NewThresholds(bronze, silver, gold uint16) (Thresholds, error) {
	t := Thresholds{bronze, silver, gold}
	if silver < bronze || gold < silver {
		return t, fmt.Errorf("sale: thresholds must be non-decreasing: %v", t)
	}
	if gold != TierDenominator {
		return t, fmt.Errorf("sale: final threshold must equal %d, got %d", TierDenominator, gold)
	}
	return t, nil
}

var tierDenominator = big.NewInt(TierDenominator)

// DrawSeed derives the initial seed for a purchase from the buyer, the block
// time, the purchase size and the buyer's prior purchase count. The inputs
// are public and the timestamp is miner-influenceable; that is an accepted
// property of the original allocation scheme, not a defect to fix, and the
// exact formula is load-bearing for reproducing historical allocations.
func DrawSeed(buyer [20]byte, timestamp, amount, priorPurchased uint64) *big.Int {
	buf := make([]byte, 0, 20+3*32)
	buf = append(buf, buyer[:]...)
	buf = appendUint256(buf, timestamp)
	buf = appendUint256(buf, amount)
	buf = appendUint256(buf, priorPurchased)
	return new(big.Int).SetBytes(ethcrypto.Keccak256(buf))
}

// Draw maps the seed onto a tier and derives the seed for the next unit:
// the tier comes from seed mod denominator, the next seed from hashing the
// 32-byte encoding of seed / denominator. The integer division between draws
// is part of the canonical formula.
func (t Thresholds) Draw(seed *big.Int) (Tier, *big.Int) {
	quotient, remainder := new(big.Int).QuoRem(seed, tierDenominator, new(big.Int))
	value := remainder.Uint64()
	tier := TierGold
	switch {
	case value < uint64(t[TierBronze]):
		tier = TierBronze
	case value < uint64(t[TierSilver]):
		tier = TierSilver
	}
	var word [32]byte
	quotient.FillBytes(word[:])
	next := new(big.Int).SetBytes(ethcrypto.Keccak256(word[:]))
	return tier, next
}

// DrawTiers runs the chained draw for a whole purchase and returns one tier
// per unit, fully determined by the inputs.
func (t Thresholds) DrawTiers(buyer [20]byte, timestamp, amount, priorPurchased uint64) []Tier {
	tiers := make([]Tier, 0, amount)
	seed := DrawSeed(buyer, timestamp, amount, priorPurchased)
	for i := uint64(0); i < amount; i++ {
		var tier Tier
		tier, seed = t.Draw(seed)
		tiers = append(tiers, tier)
	}
	return tiers
}

func appendUint256(buf []byte, v uint64) []byte {
	var word [32]byte
	new(big.Int).SetUint64(v).FillBytes(word[:])
	return append(buf, word[:]...)
}
