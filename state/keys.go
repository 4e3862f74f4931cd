package state

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
)

var (
	accountPrefix = []byte("acct/")

	iroRecordPrefix = []byte("iro/record/")
	iroSequenceKey  = []byte("iro/seq")
	iroCommitPrefix = []byte("iro/commit/")
	iroBitmapPrefix = []byte("iro/bitmap/")

	vestingPositionPrefix = []byte("vesting/position/")
	vestingSequenceKey    = []byte("vesting/seq")

	renftBalancePrefix   = []byte("renft/balance/")
	renftSupplyPrefix    = []byte("renft/supply/")
	renftRoyaltyPrefix   = []byte("renft/royalty/")
	renftAllowancePrefix = []byte("renft/allowance/")
	renftSequenceKey     = []byte("renft/seq")

	saleRootPrefix      = []byte("sale/root/")
	saleRoundKey        = []byte("sale/airdrop/round")
	saleTotalSoldKey    = []byte("sale/sold")
	saleClaimedPrefix   = []byte("sale/claimed/")
	salePurchasedPrefix = []byte("sale/purchased/")

	tokenEmissionKey = []byte("token/emission")
)

func appendUint64(prefix []byte, v uint64) []byte {
	buf := make([]byte, len(prefix), len(prefix)+8)
	copy(buf, prefix)
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], v)
	return append(buf, id[:]...)
}

func appendAddress(prefix []byte, addr [20]byte) []byte {
	buf := make([]byte, len(prefix), len(prefix)+40)
	copy(buf, prefix)
	encoded := hex.EncodeToString(addr[:])
	return append(buf, encoded...)
}

func appendString(prefix []byte, s string) []byte {
	buf := make([]byte, len(prefix), len(prefix)+len(s))
	copy(buf, prefix)
	return append(buf, s...)
}

func accountKey(addr [20]byte) []byte { return appendAddress(accountPrefix, addr) }

func iroRecordKey(id uint64) []byte { return appendUint64(iroRecordPrefix, id) }

func iroCommitKey(id uint64, addr [20]byte) []byte {
	return appendAddress(append(appendUint64(iroCommitPrefix, id), '/'), addr)
}

func iroBitmapKey(name string, word uint64) []byte {
	return appendUint64(append(appendString(iroBitmapPrefix, name), '/'), word)
}

func vestingPositionKey(id uint64) []byte { return appendUint64(vestingPositionPrefix, id) }

func renftBalanceKey(collection uint64, addr [20]byte) []byte {
	return appendAddress(append(appendUint64(renftBalancePrefix, collection), '/'), addr)
}

func renftSupplyKey(collection uint64) []byte { return appendUint64(renftSupplyPrefix, collection) }

func renftRoyaltyKey(collection uint64) []byte { return appendUint64(renftRoyaltyPrefix, collection) }

func renftAllowanceKey(owner [20]byte, collection uint64) []byte {
	return appendUint64(append(appendAddress(renftAllowancePrefix, owner), '/'), collection)
}

func saleRootKey(category string) []byte { return appendString(saleRootPrefix, category) }

func saleClaimedKey(category string, round uint64, addr [20]byte) []byte {
	key := appendString(saleClaimedPrefix, category)
	key = append(key, '/')
	key = append(key, strconv.FormatUint(round, 10)...)
	key = append(key, '/')
	return appendAddress(key, addr)
}

func salePurchasedKey(addr [20]byte) []byte { return appendAddress(salePurchasedPrefix, addr) }
