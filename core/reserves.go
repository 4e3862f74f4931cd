package core

import (
	"math/big"
	"sync"
)

// ReserveDeposit is one recorded remainder deposit.
type ReserveDeposit struct {
	RealEstateID uint64
	Amount       *big.Int
	Denom        string
}

// BasicReserves is an in-process reserves sink: it owns a ledger address and
// keeps an audit trail of which property each deposit backs. It implements
// iro.ReservesSink.
type BasicReserves struct {
	addr [20]byte

	mu       sync.Mutex
	deposits []ReserveDeposit
}

// NewBasicReserves creates a sink parked at addr.
func NewBasicReserves(addr [20]byte) *BasicReserves {
	return &BasicReserves{addr: addr}
}

// Address implements iro.ReservesSink.
func (r *BasicReserves) Address() [20]byte { return r.addr }

// Deposit implements iro.ReservesSink.
func (r *BasicReserves) Deposit(realEstateID uint64, amount *big.Int, denom string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deposits = append(r.deposits, ReserveDeposit{
		RealEstateID: realEstateID,
		Amount:       new(big.Int).Set(amount),
		Denom:        denom,
	})
	return nil
}

// Deposits returns a copy of the recorded deposits.
func (r *BasicReserves) Deposits() []ReserveDeposit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ReserveDeposit, len(r.deposits))
	copy(out, r.deposits)
	return out
}
