package sale

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"horizon/core/types"
)

const (
	EventTypeRootSet   = "sale.root_set"
	EventTypeClaimed   = "sale.claimed"
	EventTypePurchased = "sale.purchased"
)

// NewRootSetEvent returns the payload emitted when a whitelist root is
// installed.
func NewRootSetEvent(category string, root [32]byte) *types.Event {
	return &types.Event{Type: EventTypeRootSet, Attributes: map[string]string{
		"category": category,
		"root":     hex.EncodeToString(root[:]),
	}}
}

// NewClaimEvent returns the payload emitted for a whitelist claim.
func NewClaimEvent(claimer [20]byte, category string, amount uint64, counts [TierCount]uint64) *types.Event {
	attrs := map[string]string{
		"claimer":  hex.EncodeToString(claimer[:]),
		"category": category,
		"amount":   strconv.FormatUint(amount, 10),
	}
	addTierCounts(attrs, counts)
	return &types.Event{Type: EventTypeClaimed, Attributes: attrs}
}

// NewPurchaseEvent returns the payload emitted for a public purchase.
func NewPurchaseEvent(buyer [20]byte, amount uint64, cost *big.Int, counts [TierCount]uint64) *types.Event {
	attrs := map[string]string{
		"buyer":  hex.EncodeToString(buyer[:]),
		"amount": strconv.FormatUint(amount, 10),
		"cost":   cost.String(),
	}
	addTierCounts(attrs, counts)
	return &types.Event{Type: EventTypePurchased, Attributes: attrs}
}

func addTierCounts(attrs map[string]string, counts [TierCount]uint64) {
	for tier, count := range counts {
		attrs[Tier(tier).String()] = strconv.FormatUint(count, 10)
	}
}
