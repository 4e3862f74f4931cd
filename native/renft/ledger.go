package renft

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	errNilState            = errors.New("renft ledger: state not configured")
	errInvalidAmount       = errors.New("renft ledger: amount must be positive")
	errInsufficientBalance = errors.New("renft ledger: insufficient balance")
	errNotApproved         = errors.New("renft ledger: caller not approved")
	errAllowanceExceeded   = errors.New("renft ledger: allowance exceeded")
)

// TokenLedger is the fractional token capability consumed by the IRO engine
// and the sale contracts.
type TokenLedger interface {
	Mint(collection uint64, to [20]byte, amount *big.Int) error
	Transfer(from, to [20]byte, collection uint64, amount *big.Int) error
	BalanceOf(addr [20]byte, collection uint64) (*big.Int, error)
	TotalSupply(collection uint64) (*big.Int, error)
	NextRealEstateID() (uint64, error)
}

// RoyaltyLedger is the royalty capability, kept separate from the token
// ledger so consumers depend only on what they use.
type RoyaltyLedger interface {
	SetRoyalty(collection uint64, royalty *Royalty) error
	RoyaltyInfo(collection uint64, salePrice *big.Int) ([20]byte, *big.Int, error)
}

// ApprovalLedger is the single-spender approval capability: one allowance per
// (owner, collection), replaced wholesale on each Approve.
type ApprovalLedger interface {
	Approve(owner, spender [20]byte, collection uint64, amount *big.Int) error
	Allowance(owner, spender [20]byte, collection uint64) (*big.Int, error)
	TransferFrom(spender, from, to [20]byte, collection uint64, amount *big.Int) error
}

type ledgerState interface {
	RENFTBalance(collection uint64, addr [20]byte) (*big.Int, error)
	SetRENFTBalance(collection uint64, addr [20]byte, amount *big.Int) error
	RENFTSupply(collection uint64) (*big.Int, error)
	SetRENFTSupply(collection uint64, amount *big.Int) error
	RENFTNextID() (uint64, error)
	RENFTRoyalty(collection uint64) (*Royalty, bool, error)
	SetRENFTRoyalty(collection uint64, royalty *Royalty) error
	RENFTAllowance(owner [20]byte, collection uint64) (*Allowance, bool, error)
	SetRENFTAllowance(owner [20]byte, collection uint64, allowance *Allowance) error
}

// Ledger implements the token, royalty and approval capabilities over keyed
// state. The three capabilities are independent interfaces so the flattened
// composition replaces what used to be an inheritance chain.
type Ledger struct {
	state ledgerState
}

var (
	_ TokenLedger    = (*Ledger)(nil)
	_ RoyaltyLedger  = (*Ledger)(nil)
	_ ApprovalLedger = (*Ledger)(nil)
)

// NewLedger constructs an unwired ledger. SetState must be called before use.
func NewLedger() *Ledger { return &Ledger{} }

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

func (l *Ledger) requireState() (ledgerState, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state, nil
}

// Mint credits freshly issued units of the collection to the recipient and
// grows the collection supply by the same amount.
func (l *Ledger) Mint(collection uint64, to [20]byte, amount *big.Int) error {
	st, err := l.requireState()
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	balance, err := st.RENFTBalance(collection, to)
	if err != nil {
		return err
	}
	if err := st.SetRENFTBalance(collection, to, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	supply, err := st.RENFTSupply(collection)
	if err != nil {
		return err
	}
	return st.SetRENFTSupply(collection, new(big.Int).Add(supply, amount))
}

// Transfer moves units between holders within one collection.
func (l *Ledger) Transfer(from, to [20]byte, collection uint64, amount *big.Int) error {
	st, err := l.requireState()
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	balance, err := st.RENFTBalance(collection, from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", errInsufficientBalance, balance, amount)
	}
	if err := st.SetRENFTBalance(collection, from, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	dest, err := st.RENFTBalance(collection, to)
	if err != nil {
		return err
	}
	return st.SetRENFTBalance(collection, to, new(big.Int).Add(dest, amount))
}

// BalanceOf reports the units addr holds in the collection.
func (l *Ledger) BalanceOf(addr [20]byte, collection uint64) (*big.Int, error) {
	st, err := l.requireState()
	if err != nil {
		return nil, err
	}
	return st.RENFTBalance(collection, addr)
}

// TotalSupply reports the outstanding units of the collection.
func (l *Ledger) TotalSupply(collection uint64) (*big.Int, error) {
	st, err := l.requireState()
	if err != nil {
		return nil, err
	}
	return st.RENFTSupply(collection)
}

// NextRealEstateID allocates the next sequential collection identifier.
func (l *Ledger) NextRealEstateID() (uint64, error) {
	st, err := l.requireState()
	if err != nil {
		return 0, err
	}
	return st.RENFTNextID()
}

// SetRoyalty records the royalty configuration for a collection.
func (l *Ledger) SetRoyalty(collection uint64, royalty *Royalty) error {
	st, err := l.requireState()
	if err != nil {
		return err
	}
	sanitized, err := SanitizeRoyalty(royalty)
	if err != nil {
		return err
	}
	return st.SetRENFTRoyalty(collection, sanitized)
}

// RoyaltyInfo returns the royalty receiver and the royalty amount due on a
// sale at the provided price. Collections without a configured royalty yield
// a zero receiver and zero amount.
func (l *Ledger) RoyaltyInfo(collection uint64, salePrice *big.Int) ([20]byte, *big.Int, error) {
	var zero [20]byte
	st, err := l.requireState()
	if err != nil {
		return zero, nil, err
	}
	royalty, ok, err := st.RENFTRoyalty(collection)
	if err != nil {
		return zero, nil, err
	}
	if !ok || salePrice == nil {
		return zero, big.NewInt(0), nil
	}
	due := new(big.Int).Mul(salePrice, big.NewInt(int64(royalty.FeeBps)))
	due.Quo(due, big.NewInt(FeeDenominator))
	return royalty.Receiver, due, nil
}

// Approve replaces the collection allowance with a new single-spender grant.
func (l *Ledger) Approve(owner, spender [20]byte, collection uint64, amount *big.Int) error {
	st, err := l.requireState()
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	grant := &Allowance{Spender: spender, Amount: new(big.Int).Set(amount)}
	return st.SetRENFTAllowance(owner, collection, grant)
}

// Allowance reports the remaining allowance for spender, zero when another
// spender holds the grant.
func (l *Ledger) Allowance(owner, spender [20]byte, collection uint64) (*big.Int, error) {
	st, err := l.requireState()
	if err != nil {
		return nil, err
	}
	grant, ok, err := st.RENFTAllowance(owner, collection)
	if err != nil {
		return nil, err
	}
	if !ok || grant.Spender != spender || grant.Amount == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(grant.Amount), nil
}

// TransferFrom spends the caller's allowance to move units out of the owner's
// balance.
func (l *Ledger) TransferFrom(spender, from, to [20]byte, collection uint64, amount *big.Int) error {
	st, err := l.requireState()
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	grant, ok, err := st.RENFTAllowance(from, collection)
	if err != nil {
		return err
	}
	if !ok || grant.Spender != spender {
		return errNotApproved
	}
	if grant.Amount == nil || grant.Amount.Cmp(amount) < 0 {
		return errAllowanceExceeded
	}
	remaining := new(big.Int).Sub(grant.Amount, amount)
	if err := st.SetRENFTAllowance(from, collection, &Allowance{Spender: spender, Amount: remaining}); err != nil {
		return err
	}
	return l.Transfer(from, to, collection, amount)
}
