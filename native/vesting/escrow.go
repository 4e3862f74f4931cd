package vesting

import (
	"math/big"
	"sync"
)

// EscrowLock is one recorded vote-escrow lock.
type EscrowLock struct {
	Beneficiary [20]byte
	Amount      *big.Int
	Period      uint64
}

// LockBook is an in-process VoteEscrow: locked claims are parked at its
// address and the lock terms recorded for inspection. Deployments with a real
// vote-escrow module swap in their own implementation.
type LockBook struct {
	addr [20]byte

	mu    sync.Mutex
	locks []EscrowLock
}

// NewLockBook creates a lock book parked at addr.
func NewLockBook(addr [20]byte) *LockBook {
	return &LockBook{addr: addr}
}

// Address implements VoteEscrow.
func (b *LockBook) Address() [20]byte { return b.addr }

// Lock implements VoteEscrow.
func (b *LockBook) Lock(beneficiary [20]byte, amount *big.Int, period uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locks = append(b.locks, EscrowLock{
		Beneficiary: beneficiary,
		Amount:      new(big.Int).Set(amount),
		Period:      period,
	})
	return nil
}

// Locks returns a copy of the recorded locks.
func (b *LockBook) Locks() []EscrowLock {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]EscrowLock, len(b.locks))
	copy(out, b.locks)
	return out
}
