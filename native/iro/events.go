package iro

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"horizon/core/types"
)

const (
	EventTypeCreated           = "iro.created"
	EventTypeCommitted         = "iro.committed"
	EventTypeClaimed           = "iro.claimed"
	EventTypeRefunded          = "iro.refunded"
	EventTypeListingOwnerClaim = "iro.listing_owner_claimed"
	EventTypeWithdrawn         = "iro.withdrawn"
)

// NewCreatedEvent returns the canonical payload for a newly created offering.
func NewCreatedEvent(record *IRO) *types.Event {
	attrs := baseAttributes(record)
	attrs["softCap"] = bigString(record.SoftCap)
	attrs["hardCap"] = bigString(record.HardCap)
	attrs["unitPrice"] = bigString(record.UnitPrice)
	attrs["start"] = strconv.FormatUint(record.Start, 10)
	attrs["end"] = strconv.FormatUint(record.End, 10)
	return &types.Event{Type: EventTypeCreated, Attributes: attrs}
}

// NewCommitEvent returns the payload emitted when a purchase is committed.
func NewCommitEvent(record *IRO, buyer [20]byte, value *big.Int) *types.Event {
	attrs := baseAttributes(record)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	attrs["value"] = bigString(value)
	attrs["totalFunding"] = bigString(record.TotalFunding)
	return &types.Event{Type: EventTypeCommitted, Attributes: attrs}
}

// NewClaimEvent returns the payload emitted when a successful position is
// settled into property tokens.
func NewClaimEvent(record *IRO, claimer, to [20]byte, units *big.Int) *types.Event {
	attrs := baseAttributes(record)
	attrs["claimer"] = hex.EncodeToString(claimer[:])
	attrs["to"] = hex.EncodeToString(to[:])
	attrs["units"] = bigString(units)
	attrs["realEstateId"] = strconv.FormatUint(record.RealEstateID, 10)
	return &types.Event{Type: EventTypeClaimed, Attributes: attrs}
}

// NewRefundEvent returns the payload emitted when a failed position is
// refunded.
func NewRefundEvent(record *IRO, claimer [20]byte, value *big.Int) *types.Event {
	attrs := baseAttributes(record)
	attrs["claimer"] = hex.EncodeToString(claimer[:])
	attrs["value"] = bigString(value)
	return &types.Event{Type: EventTypeRefunded, Attributes: attrs}
}

// NewListingOwnerClaimEvent returns the payload emitted when the listing
// owner mints their supply share.
func NewListingOwnerClaimEvent(record *IRO, amount *big.Int) *types.Event {
	attrs := baseAttributes(record)
	attrs["listingOwner"] = hex.EncodeToString(record.ListingOwner[:])
	attrs["amount"] = bigString(amount)
	return &types.Event{Type: EventTypeListingOwnerClaim, Attributes: attrs}
}

// NewWithdrawEvent returns the payload emitted when the raised funds are
// distributed.
func NewWithdrawEvent(record *IRO, listingOwnerAmt, treasuryAmt, remainder *big.Int) *types.Event {
	attrs := baseAttributes(record)
	attrs["listingOwnerAmount"] = bigString(listingOwnerAmt)
	attrs["treasuryAmount"] = bigString(treasuryAmt)
	attrs["remainder"] = bigString(remainder)
	return &types.Event{Type: EventTypeWithdrawn, Attributes: attrs}
}

func baseAttributes(record *IRO) map[string]string {
	attrs := make(map[string]string)
	if record == nil {
		return attrs
	}
	attrs["id"] = strconv.FormatUint(record.ID, 10)
	attrs["currency"] = record.Currency
	return attrs
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
