package state

import (
	"fmt"
	"math/big"

	"horizon/native/iro"
)

// IROPut persists the offering record.
func (m *Manager) IROPut(record *iro.IRO) error {
	if record == nil {
		return fmt.Errorf("state: nil offering")
	}
	return m.storeJSON(iroRecordKey(record.ID), record)
}

// IROGet loads the offering record by ID.
func (m *Manager) IROGet(id uint64) (*iro.IRO, bool, error) {
	record := &iro.IRO{}
	ok, err := m.loadJSON(iroRecordKey(id), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// IRONextID allocates the next sequential offering ID.
func (m *Manager) IRONextID() (uint64, error) {
	return m.nextSequence(iroSequenceKey)
}

// IROCount reports how many offerings have been created.
func (m *Manager) IROCount() (uint64, error) {
	count, _, err := m.loadUint64(iroSequenceKey)
	return count, err
}

// IROCommitment returns the cumulative committed value for (offering, user).
func (m *Manager) IROCommitment(id uint64, addr [20]byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.loadJSON(iroCommitKey(id, addr), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// IROSetCommitment stores the cumulative committed value for (offering, user).
func (m *Manager) IROSetCommitment(id uint64, addr [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.storeJSON(iroCommitKey(id, addr), amount)
}

// IROBitmapWord reads one uint64 word of the named offering bitmap.
func (m *Manager) IROBitmapWord(name string, word uint64) (uint64, error) {
	value, _, err := m.loadUint64(iroBitmapKey(name, word))
	return value, err
}

// IROSetBitmapWord writes one uint64 word of the named offering bitmap.
func (m *Manager) IROSetBitmapWord(name string, word uint64, value uint64) error {
	return m.storeUint64(iroBitmapKey(name, word), value)
}
