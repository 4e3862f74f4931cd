package state

import (
	"fmt"

	"horizon/native/token"
)

// TokenEmission loads the emission cursor of the governance token.
func (m *Manager) TokenEmission() (*token.EmissionState, bool, error) {
	st := &token.EmissionState{}
	ok, err := m.loadJSON(tokenEmissionKey, st)
	if err != nil || !ok {
		return nil, false, err
	}
	return st, true, nil
}

// SetTokenEmission stores the emission cursor of the governance token.
func (m *Manager) SetTokenEmission(st *token.EmissionState) error {
	if st == nil {
		return fmt.Errorf("state: nil emission state")
	}
	return m.storeJSON(tokenEmissionKey, st)
}
