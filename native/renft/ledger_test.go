package renft

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
)

type mockState struct {
	balances   map[string]*big.Int
	supplies   map[uint64]*big.Int
	nextID     uint64
	royalties  map[uint64]*Royalty
	allowances map[string]*Allowance
}

func newMockState() *mockState {
	return &mockState{
		balances:   make(map[string]*big.Int),
		supplies:   make(map[uint64]*big.Int),
		nextID:     1,
		royalties:  make(map[uint64]*Royalty),
		allowances: make(map[string]*Allowance),
	}
}

func balanceKey(collection uint64, addr [20]byte) string {
	return fmt.Sprintf("%d/%x", collection, addr)
}

func (m *mockState) RENFTBalance(collection uint64, addr [20]byte) (*big.Int, error) {
	if balance, ok := m.balances[balanceKey(collection, addr)]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetRENFTBalance(collection uint64, addr [20]byte, amount *big.Int) error {
	m.balances[balanceKey(collection, addr)] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) RENFTSupply(collection uint64) (*big.Int, error) {
	if supply, ok := m.supplies[collection]; ok {
		return new(big.Int).Set(supply), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetRENFTSupply(collection uint64, amount *big.Int) error {
	m.supplies[collection] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) RENFTNextID() (uint64, error) {
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *mockState) RENFTRoyalty(collection uint64) (*Royalty, bool, error) {
	royalty, ok := m.royalties[collection]
	if !ok {
		return nil, false, nil
	}
	return royalty.Clone(), true, nil
}

func (m *mockState) SetRENFTRoyalty(collection uint64, royalty *Royalty) error {
	m.royalties[collection] = royalty.Clone()
	return nil
}

func allowanceKey(owner [20]byte, collection uint64) string {
	return fmt.Sprintf("%x/%d", owner, collection)
}

func (m *mockState) RENFTAllowance(owner [20]byte, collection uint64) (*Allowance, bool, error) {
	grant, ok := m.allowances[allowanceKey(owner, collection)]
	if !ok {
		return nil, false, nil
	}
	return grant.Clone(), true, nil
}

func (m *mockState) SetRENFTAllowance(owner [20]byte, collection uint64, allowance *Allowance) error {
	m.allowances[allowanceKey(owner, collection)] = allowance.Clone()
	return nil
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newTestLedger() (*Ledger, *mockState) {
	ledger := NewLedger()
	state := newMockState()
	ledger.SetState(state)
	return ledger, state
}

func TestMintGrowsBalanceAndSupply(t *testing.T) {
	ledger, _ := newTestLedger()
	holder := addr(0x01)

	if err := ledger.Mint(7, holder, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Mint(7, holder, big.NewInt(50)); err != nil {
		t.Fatalf("second mint: %v", err)
	}
	balance, err := ledger.BalanceOf(holder, 7)
	if err != nil || balance.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("balance: %s, %v", balance, err)
	}
	supply, err := ledger.TotalSupply(7)
	if err != nil || supply.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("supply: %s, %v", supply, err)
	}
	if err := ledger.Mint(7, holder, big.NewInt(0)); !errors.Is(err, errInvalidAmount) {
		t.Fatalf("zero mint: %v", err)
	}
}

func TestTransferMovesWithinCollection(t *testing.T) {
	ledger, _ := newTestLedger()
	from, to := addr(0x01), addr(0x02)
	if err := ledger.Mint(7, from, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(from, to, 7, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	fromBal, _ := ledger.BalanceOf(from, 7)
	toBal, _ := ledger.BalanceOf(to, 7)
	if fromBal.Cmp(big.NewInt(60)) != 0 || toBal.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("balances after transfer: %s / %s", fromBal, toBal)
	}
	if err := ledger.Transfer(from, to, 7, big.NewInt(1_000)); !errors.Is(err, errInsufficientBalance) {
		t.Fatalf("overdraft transfer: %v", err)
	}
	// Supply is untouched by transfers.
	supply, _ := ledger.TotalSupply(7)
	if supply.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("supply drifted: %s", supply)
	}
}

func TestNextRealEstateIDSequential(t *testing.T) {
	ledger, _ := newTestLedger()
	first, err := ledger.NextRealEstateID()
	if err != nil {
		t.Fatalf("next id: %v", err)
	}
	second, err := ledger.NextRealEstateID()
	if err != nil {
		t.Fatalf("next id: %v", err)
	}
	if second != first+1 {
		t.Fatalf("ids not sequential: %d then %d", first, second)
	}
}

func TestRoyaltyInfo(t *testing.T) {
	ledger, _ := newTestLedger()
	receiver := addr(0x0F)

	// No royalty configured: zero receiver, zero amount.
	got, due, err := ledger.RoyaltyInfo(7, big.NewInt(10_000))
	if err != nil || got != ([20]byte{}) || due.Sign() != 0 {
		t.Fatalf("unconfigured royalty: %x %s %v", got, due, err)
	}

	if err := ledger.SetRoyalty(7, &Royalty{Receiver: receiver, FeeBps: 250}); err != nil {
		t.Fatalf("set royalty: %v", err)
	}
	got, due, err = ledger.RoyaltyInfo(7, big.NewInt(10_000))
	if err != nil {
		t.Fatalf("royalty info: %v", err)
	}
	if got != receiver || due.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("royalty: %x %s", got, due)
	}

	if err := ledger.SetRoyalty(7, &Royalty{Receiver: receiver, FeeBps: 10_001}); err == nil {
		t.Fatalf("out-of-range royalty accepted")
	}
}

func TestApproveSingleSpender(t *testing.T) {
	ledger, _ := newTestLedger()
	owner, first, second := addr(0x01), addr(0x02), addr(0x03)

	if err := ledger.Approve(owner, first, 7, big.NewInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	allowance, _ := ledger.Allowance(owner, first, 7)
	if allowance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("allowance: %s", allowance)
	}

	// A second approval replaces the grant wholesale: the first spender's
	// allowance drops to zero.
	if err := ledger.Approve(owner, second, 7, big.NewInt(30)); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	allowance, _ = ledger.Allowance(owner, first, 7)
	if allowance.Sign() != 0 {
		t.Fatalf("replaced spender still has allowance: %s", allowance)
	}
	allowance, _ = ledger.Allowance(owner, second, 7)
	if allowance.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("new spender allowance: %s", allowance)
	}
}

func TestTransferFromSpendsAllowance(t *testing.T) {
	ledger, _ := newTestLedger()
	owner, spender, recipient := addr(0x01), addr(0x02), addr(0x03)
	if err := ledger.Mint(7, owner, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := ledger.TransferFrom(spender, owner, recipient, 7, big.NewInt(10)); !errors.Is(err, errNotApproved) {
		t.Fatalf("unapproved transferFrom: %v", err)
	}
	if err := ledger.Approve(owner, spender, 7, big.NewInt(40)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.TransferFrom(spender, owner, recipient, 7, big.NewInt(30)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	allowance, _ := ledger.Allowance(owner, spender, 7)
	if allowance.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("remaining allowance: %s", allowance)
	}
	if err := ledger.TransferFrom(spender, owner, recipient, 7, big.NewInt(20)); !errors.Is(err, errAllowanceExceeded) {
		t.Fatalf("over-allowance transferFrom: %v", err)
	}
	recipientBal, _ := ledger.BalanceOf(recipient, 7)
	if recipientBal.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("recipient balance: %s", recipientBal)
	}
}
