package state

import (
	"fmt"

	"horizon/native/vesting"
)

// VestingPositionPut persists the vesting position.
func (m *Manager) VestingPositionPut(position *vesting.Position) error {
	if position == nil {
		return fmt.Errorf("state: nil vesting position")
	}
	return m.storeJSON(vestingPositionKey(position.ID), position)
}

// VestingPositionGet loads the vesting position by ID.
func (m *Manager) VestingPositionGet(id uint64) (*vesting.Position, bool, error) {
	position := &vesting.Position{}
	ok, err := m.loadJSON(vestingPositionKey(id), position)
	if err != nil || !ok {
		return nil, false, err
	}
	return position, true, nil
}

// VestingNextID allocates the next sequential position ID.
func (m *Manager) VestingNextID() (uint64, error) {
	return m.nextSequence(vestingSequenceKey)
}

// VestingCount reports how many positions have been created.
func (m *Manager) VestingCount() (uint64, error) {
	count, _, err := m.loadUint64(vestingSequenceKey)
	return count, err
}
