package state

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"horizon/core/types"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the available
	// balance in the requested denom.
	ErrInsufficientFunds = errors.New("state: insufficient funds")
	// ErrInvalidAmount is returned for nil or negative transfer amounts.
	ErrInvalidAmount = errors.New("state: amount must be non-negative")
)

// GetAccount loads the account stored for addr, returning a zeroed account
// when none exists yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	account := &types.Account{}
	ok, err := m.loadJSON(accountKey(addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balances: make(map[string]*big.Int)}, nil
	}
	if account.Balances == nil {
		account.Balances = make(map[string]*big.Int)
	}
	return account, nil
}

// PutAccount persists the account record for addr.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	return m.storeJSON(accountKey(addr), account)
}

// canonicalDenom folds a denom to the upper-case form every balance key uses,
// so "usdh" and "USDH" address the same ledger entry no matter which path
// (genesis, engine, RPC) supplied it.
func canonicalDenom(denom string) string {
	return strings.ToUpper(strings.TrimSpace(denom))
}

// BalanceOf returns the balance addr holds in denom.
func (m *Manager) BalanceOf(addr [20]byte, denom string) (*big.Int, error) {
	account, err := m.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return account.Balance(canonicalDenom(denom)), nil
}

// Transfer moves amount of denom from one account to another. A zero amount
// is a no-op; a debit beyond the sender's balance fails without any effect.
func (m *Manager) Transfer(from, to [20]byte, denom string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	denom = canonicalDenom(denom)
	sender, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	balance := sender.Balance(denom)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s %s, need %s", ErrInsufficientFunds, encodeAddress(from), balance, denom, amount)
	}
	sender.SetBalance(denom, new(big.Int).Sub(balance, amount))
	if err := m.PutAccount(from, sender); err != nil {
		return err
	}
	receiver, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	receiver.SetBalance(denom, new(big.Int).Add(receiver.Balance(denom), amount))
	return m.PutAccount(to, receiver)
}

// Mint credits freshly issued units of denom to addr.
func (m *Manager) Mint(to [20]byte, denom string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	denom = canonicalDenom(denom)
	account, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	account.SetBalance(denom, new(big.Int).Add(account.Balance(denom), amount))
	return m.PutAccount(to, account)
}

func encodeAddress(addr [20]byte) string {
	return fmt.Sprintf("0x%x", addr)
}
