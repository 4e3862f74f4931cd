package types

import "math/big"

// Account is the per-address balance record maintained by the state manager.
// Balances are keyed by currency denom (e.g. "USDH", "HZN", "ETH"), each in
// the denom's smallest unit.
type Account struct {
	Nonce    uint64              `json:"nonce"`
	Balances map[string]*big.Int `json:"balances,omitempty"`
}

// Clone returns a deep copy of the account so callers can safely mutate the
// copy without affecting the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Balances: make(map[string]*big.Int)}
	}
	clone := &Account{Nonce: a.Nonce, Balances: make(map[string]*big.Int, len(a.Balances))}
	for denom, amt := range a.Balances {
		if amt == nil {
			clone.Balances[denom] = big.NewInt(0)
			continue
		}
		clone.Balances[denom] = new(big.Int).Set(amt)
	}
	return clone
}

// Balance returns the balance held in the given denom, never nil.
func (a *Account) Balance(denom string) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	if amt, ok := a.Balances[denom]; ok && amt != nil {
		return new(big.Int).Set(amt)
	}
	return big.NewInt(0)
}

// SetBalance records the balance for denom, normalising nil to zero.
func (a *Account) SetBalance(denom string, amt *big.Int) {
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	if amt == nil {
		a.Balances[denom] = big.NewInt(0)
		return
	}
	a.Balances[denom] = new(big.Int).Set(amt)
}
