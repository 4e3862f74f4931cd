package state

import (
	"fmt"
	"math/big"

	"horizon/native/renft"
)

// RENFTBalance returns addr's units in the collection.
func (m *Manager) RENFTBalance(collection uint64, addr [20]byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.loadJSON(renftBalanceKey(collection, addr), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// SetRENFTBalance stores addr's units in the collection.
func (m *Manager) SetRENFTBalance(collection uint64, addr [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.storeJSON(renftBalanceKey(collection, addr), amount)
}

// RENFTSupply returns the outstanding units of the collection.
func (m *Manager) RENFTSupply(collection uint64) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.loadJSON(renftSupplyKey(collection), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// SetRENFTSupply stores the outstanding units of the collection.
func (m *Manager) SetRENFTSupply(collection uint64, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.storeJSON(renftSupplyKey(collection), amount)
}

// RENFTNextID allocates the next sequential collection identifier.
func (m *Manager) RENFTNextID() (uint64, error) {
	return m.nextSequence(renftSequenceKey)
}

// RENFTRoyalty loads the royalty configuration of the collection.
func (m *Manager) RENFTRoyalty(collection uint64) (*renft.Royalty, bool, error) {
	royalty := &renft.Royalty{}
	ok, err := m.loadJSON(renftRoyaltyKey(collection), royalty)
	if err != nil || !ok {
		return nil, false, err
	}
	return royalty, true, nil
}

// SetRENFTRoyalty stores the royalty configuration of the collection.
func (m *Manager) SetRENFTRoyalty(collection uint64, royalty *renft.Royalty) error {
	if royalty == nil {
		return fmt.Errorf("state: nil royalty")
	}
	return m.storeJSON(renftRoyaltyKey(collection), royalty)
}

// RENFTAllowance loads the single-spender allowance for (owner, collection).
func (m *Manager) RENFTAllowance(owner [20]byte, collection uint64) (*renft.Allowance, bool, error) {
	allowance := &renft.Allowance{}
	ok, err := m.loadJSON(renftAllowanceKey(owner, collection), allowance)
	if err != nil || !ok {
		return nil, false, err
	}
	return allowance, true, nil
}

// SetRENFTAllowance stores the single-spender allowance for (owner, collection).
func (m *Manager) SetRENFTAllowance(owner [20]byte, collection uint64, allowance *renft.Allowance) error {
	if allowance == nil {
		return fmt.Errorf("state: nil allowance")
	}
	return m.storeJSON(renftAllowanceKey(owner, collection), allowance)
}
