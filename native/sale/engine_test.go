package sale

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
)

type mockState struct {
	roots     map[string][32]byte
	round     uint64
	claimed   map[string]bool
	purchased map[[20]byte]uint64
	sold      uint64
	balances  map[string]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		roots:     make(map[string][32]byte),
		claimed:   make(map[string]bool),
		purchased: make(map[[20]byte]uint64),
		balances:  make(map[string]*big.Int),
	}
}

func (m *mockState) SaleRoot(category string) ([32]byte, bool, error) {
	root, ok := m.roots[category]
	return root, ok, nil
}

func (m *mockState) SetSaleRoot(category string, root [32]byte) error {
	m.roots[category] = root
	return nil
}

func (m *mockState) SaleAirdropRound() (uint64, error) { return m.round, nil }

func (m *mockState) SetSaleAirdropRound(round uint64) error {
	m.round = round
	return nil
}

func claimKey(category string, round uint64, addr [20]byte) string {
	return fmt.Sprintf("%s/%d/%x", category, round, addr)
}

func (m *mockState) SaleClaimed(category string, round uint64, addr [20]byte) (bool, error) {
	return m.claimed[claimKey(category, round, addr)], nil
}

func (m *mockState) SetSaleClaimed(category string, round uint64, addr [20]byte) error {
	m.claimed[claimKey(category, round, addr)] = true
	return nil
}

func (m *mockState) SalePurchased(addr [20]byte) (uint64, error) { return m.purchased[addr], nil }

func (m *mockState) SetSalePurchased(addr [20]byte, count uint64) error {
	m.purchased[addr] = count
	return nil
}

func (m *mockState) SaleTotalSold() (uint64, error) { return m.sold, nil }

func (m *mockState) SetSaleTotalSold(count uint64) error {
	m.sold = count
	return nil
}

func balanceKey(addr [20]byte, denom string) string { return fmt.Sprintf("%x/%s", addr, denom) }

func (m *mockState) balance(addr [20]byte, denom string) *big.Int {
	if balance, ok := m.balances[balanceKey(addr, denom)]; ok {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}

func (m *mockState) setBalance(addr [20]byte, denom string, amount int64) {
	m.balances[balanceKey(addr, denom)] = big.NewInt(amount)
}

func (m *mockState) Transfer(from, to [20]byte, denom string, amount *big.Int) error {
	have := m.balance(from, denom)
	if have.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient funds: have %s, need %s", have, amount)
	}
	m.balances[balanceKey(from, denom)] = have.Sub(have, amount)
	m.balances[balanceKey(to, denom)] = new(big.Int).Add(m.balance(to, denom), amount)
	return nil
}

type mockMinter struct {
	minted map[uint64]map[[20]byte]*big.Int
}

func newMockMinter() *mockMinter {
	return &mockMinter{minted: make(map[uint64]map[[20]byte]*big.Int)}
}

func (m *mockMinter) Mint(collection uint64, to [20]byte, amount *big.Int) error {
	if m.minted[collection] == nil {
		m.minted[collection] = make(map[[20]byte]*big.Int)
	}
	current := m.minted[collection][to]
	if current == nil {
		current = big.NewInt(0)
	}
	m.minted[collection][to] = new(big.Int).Add(current, amount)
	return nil
}

func (m *mockMinter) totalFor(to [20]byte) uint64 {
	total := uint64(0)
	for _, holders := range m.minted {
		if amount, ok := holders[to]; ok {
			total += amount.Uint64()
		}
	}
	return total
}

func testConfig() Config {
	thresholds, _ := NewThresholds(600, 850, 1000)
	return Config{
		Thresholds:     thresholds,
		Collections:    [TierCount]uint64{10, 11, 12},
		UnitPrice:      big.NewInt(50),
		Denom:          "USDH",
		MaxPerPurchase: 20,
		SupplyCap:      100,
		SaleStart:      1_000,
		Treasury:       addr(0xFE),
	}
}

func newTestEngine(t *testing.T, state *mockState, minter *mockMinter) *Engine {
	t.Helper()
	engine, err := NewEngine(testConfig())
	if err != nil {
		t.Fatalf("engine config: %v", err)
	}
	engine.SetState(state)
	engine.SetMinter(minter)
	engine.SetOwner(addr(0xAD))
	engine.SetNowFunc(func() int64 { return 2_000 })
	return engine
}

func TestSetRootSingleUseCategories(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(t, state, newMockMinter())
	var root [32]byte
	root[0] = 0x01

	if err := engine.SetRoot(addr(0x01), CategoryPrivate, root); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-owner set root: %v", err)
	}
	if err := engine.SetRoot(addr(0xAD), CategoryPrivate, root); err != nil {
		t.Fatalf("set private root: %v", err)
	}
	if err := engine.SetRoot(addr(0xAD), CategoryPrivate, root); !errors.Is(err, ErrRootAlreadySet) {
		t.Fatalf("expected private root to be single-use: %v", err)
	}
	if err := engine.SetRoot(addr(0xAD), "vip", root); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("unknown category accepted: %v", err)
	}
}

func TestSetRootAirdropOpensNewRound(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(t, state, newMockMinter())
	var root [32]byte
	root[0] = 0x01

	for want := uint64(1); want <= 3; want++ {
		if err := engine.SetRoot(addr(0xAD), CategoryAirdrop, root); err != nil {
			t.Fatalf("set airdrop root %d: %v", want, err)
		}
		round, err := engine.AirdropRound()
		if err != nil {
			t.Fatalf("airdrop round: %v", err)
		}
		if round != want {
			t.Fatalf("expected round %d, got %d", want, round)
		}
	}
}

func TestClaimMintsAllotmentOnce(t *testing.T) {
	state := newMockState()
	minter := newMockMinter()
	engine := newTestEngine(t, state, minter)

	claimer := addr(0x01)
	allotted := uint64(6)
	leaves := [][32]byte{
		LeafHash(claimer, new(big.Int).SetUint64(allotted)),
		LeafHash(addr(0x02), big.NewInt(3)),
	}
	root, proofs := buildTree(t, leaves)
	if err := engine.SetRoot(addr(0xAD), CategoryWhitelist, root); err != nil {
		t.Fatalf("set root: %v", err)
	}

	if err := engine.Claim(claimer, CategoryWhitelist, allotted, proofs[0]); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := minter.totalFor(claimer); got != allotted {
		t.Fatalf("expected %d units minted, got %d", allotted, got)
	}
	if err := engine.Claim(claimer, CategoryWhitelist, allotted, proofs[0]); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected repeat claim to fail: %v", err)
	}
}

func TestClaimRejectsBadProofAndMissingRoot(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(t, state, newMockMinter())

	claimer := addr(0x01)
	if err := engine.Claim(claimer, CategoryPrivate, 5, nil); !errors.Is(err, ErrRootNotSet) {
		t.Fatalf("claim without root: %v", err)
	}

	leaves := [][32]byte{
		LeafHash(claimer, big.NewInt(5)),
		LeafHash(addr(0x02), big.NewInt(3)),
	}
	root, proofs := buildTree(t, leaves)
	if err := engine.SetRoot(addr(0xAD), CategoryPrivate, root); err != nil {
		t.Fatalf("set root: %v", err)
	}
	// Proving a larger allotment than the leaf encodes must fail.
	if err := engine.Claim(claimer, CategoryPrivate, 50, proofs[0]); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("inflated claim accepted: %v", err)
	}
	if err := engine.Claim(claimer, CategoryPrivate, 0, proofs[0]); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero claim accepted: %v", err)
	}
}

func TestAirdropRoundsAllowFreshClaims(t *testing.T) {
	state := newMockState()
	minter := newMockMinter()
	engine := newTestEngine(t, state, minter)

	claimer := addr(0x01)
	leaves := [][32]byte{
		LeafHash(claimer, big.NewInt(2)),
		LeafHash(addr(0x02), big.NewInt(2)),
	}
	root, proofs := buildTree(t, leaves)

	if err := engine.SetRoot(addr(0xAD), CategoryAirdrop, root); err != nil {
		t.Fatalf("set round 1 root: %v", err)
	}
	if err := engine.Claim(claimer, CategoryAirdrop, 2, proofs[0]); err != nil {
		t.Fatalf("round 1 claim: %v", err)
	}
	if err := engine.Claim(claimer, CategoryAirdrop, 2, proofs[0]); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("repeat claim within round accepted: %v", err)
	}

	// A new root opens a new round; the same address may claim again.
	if err := engine.SetRoot(addr(0xAD), CategoryAirdrop, root); err != nil {
		t.Fatalf("set round 2 root: %v", err)
	}
	if err := engine.Claim(claimer, CategoryAirdrop, 2, proofs[0]); err != nil {
		t.Fatalf("round 2 claim: %v", err)
	}
	if got := minter.totalFor(claimer); got != 4 {
		t.Fatalf("expected 4 units across rounds, got %d", got)
	}
}

func TestPurchasePaysTreasuryAndMintsTiers(t *testing.T) {
	state := newMockState()
	minter := newMockMinter()
	engine := newTestEngine(t, state, minter)

	buyer := addr(0x01)
	state.setBalance(buyer, "USDH", 10_000)

	if err := engine.Purchase(buyer, 10); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got := state.balance(buyer, "USDH"); got.Cmp(big.NewInt(9_500)) != 0 {
		t.Fatalf("buyer balance after purchase: %s", got)
	}
	if got := state.balance(addr(0xFE), "USDH"); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("treasury balance after purchase: %s", got)
	}
	if got := minter.totalFor(buyer); got != 10 {
		t.Fatalf("expected 10 units minted, got %d", got)
	}
	if state.purchased[buyer] != 10 {
		t.Fatalf("purchase counter not advanced: %d", state.purchased[buyer])
	}
}

func TestPurchaseGuards(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(t, state, newMockMinter())
	buyer := addr(0x01)
	state.setBalance(buyer, "USDH", 1_000_000)

	engine.SetNowFunc(func() int64 { return 500 })
	if err := engine.Purchase(buyer, 1); !errors.Is(err, ErrSaleNotStarted) {
		t.Fatalf("purchase before start: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 2_000 })

	if err := engine.Purchase(buyer, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero purchase: %v", err)
	}
	if err := engine.Purchase(buyer, 21); !errors.Is(err, ErrPurchaseTooLarge) {
		t.Fatalf("oversized purchase: %v", err)
	}
}

func TestPurchaseSupplyCap(t *testing.T) {
	state := newMockState()
	minter := newMockMinter()
	engine := newTestEngine(t, state, minter)

	buyer := addr(0x01)
	state.setBalance(buyer, "USDH", 1_000_000)
	for i := 0; i < 5; i++ {
		if err := engine.Purchase(buyer, 20); err != nil {
			t.Fatalf("purchase %d: %v", i, err)
		}
	}
	if err := engine.Purchase(buyer, 1); !errors.Is(err, ErrSoldOut) {
		t.Fatalf("purchase past supply cap: %v", err)
	}
	if got := minter.totalFor(buyer); got != 100 {
		t.Fatalf("expected exactly the supply cap minted, got %d", got)
	}
}
