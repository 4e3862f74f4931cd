package state

// SaleRoot loads the merkle root installed for the category.
func (m *Manager) SaleRoot(category string) ([32]byte, bool, error) {
	var root [32]byte
	raw, ok, err := m.get(saleRootKey(category))
	if err != nil || !ok {
		return root, false, err
	}
	copy(root[:], raw)
	return root, true, nil
}

// SetSaleRoot stores the merkle root for the category.
func (m *Manager) SetSaleRoot(category string, root [32]byte) error {
	return m.put(saleRootKey(category), root[:])
}

// SaleAirdropRound reports the current airdrop round number.
func (m *Manager) SaleAirdropRound() (uint64, error) {
	round, _, err := m.loadUint64(saleRoundKey)
	return round, err
}

// SetSaleAirdropRound stores the airdrop round number.
func (m *Manager) SetSaleAirdropRound(round uint64) error {
	return m.storeUint64(saleRoundKey, round)
}

// SaleClaimed reports whether addr already claimed in (category, round).
func (m *Manager) SaleClaimed(category string, round uint64, addr [20]byte) (bool, error) {
	_, ok, err := m.get(saleClaimedKey(category, round, addr))
	return ok, err
}

// SetSaleClaimed permanently marks addr as claimed in (category, round).
func (m *Manager) SetSaleClaimed(category string, round uint64, addr [20]byte) error {
	return m.put(saleClaimedKey(category, round, addr), []byte{1})
}

// SalePurchased returns addr's lifetime purchased unit count.
func (m *Manager) SalePurchased(addr [20]byte) (uint64, error) {
	count, _, err := m.loadUint64(salePurchasedKey(addr))
	return count, err
}

// SetSalePurchased stores addr's lifetime purchased unit count.
func (m *Manager) SetSalePurchased(addr [20]byte, count uint64) error {
	return m.storeUint64(salePurchasedKey(addr), count)
}

// SaleTotalSold returns the global sold unit count.
func (m *Manager) SaleTotalSold() (uint64, error) {
	count, _, err := m.loadUint64(saleTotalSoldKey)
	return count, err
}

// SetSaleTotalSold stores the global sold unit count.
func (m *Manager) SetSaleTotalSold(count uint64) error {
	return m.storeUint64(saleTotalSoldKey, count)
}
