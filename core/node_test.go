package core

import (
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"horizon/native/iro"
	"horizon/native/sale"
	"horizon/native/token"
	"horizon/storage"
)

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

var (
	testAdmin    = func() [20]byte { return addr(0xAD) }()
	testTreasury = func() [20]byte { return addr(0xFE) }()
)

type testNode struct {
	node *Node
	now  int64
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()
	thresholds, err := sale.NewThresholds(600, 850, 1_000)
	if err != nil {
		t.Fatalf("thresholds: %v", err)
	}
	cfg := NodeConfig{
		BaseCurrency: "USDH",
		NativeDenom:  "ETH",
		GovDenom:     "HZN",
		Admin:        testAdmin,
		Treasury:     testTreasury,
		OracleMaxAge: time.Hour,
		Sale: &sale.Config{
			Thresholds:     thresholds,
			Collections:    [sale.TierCount]uint64{10, 11, 12},
			UnitPrice:      big.NewInt(50),
			Denom:          "USDH",
			MaxPerPurchase: 20,
			SupplyCap:      100,
			SaleStart:      500,
			Treasury:       testTreasury,
		},
		Token: &token.Config{
			Denom:           "HZN",
			InitialEmission: big.NewInt(1_000),
			DecayBps:        9_000,
			SupplyCap:       big.NewInt(10_000),
			EpochLength:     100,
			Distributor:     addr(0xD1),
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	node, err := NewNode(storage.NewMemDB(), cfg, logger)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	tn := &testNode{node: node, now: 1_000}
	node.SetNowFunc(func() int64 { return tn.now })
	node.Finance().RegisterDenom("USDH", 6)
	return tn
}

func (tn *testNode) seed(t *testing.T, to [20]byte, denom string, amount int64) {
	t.Helper()
	err := tn.node.mgr.InTransaction(func() error {
		return tn.node.mgr.Mint(to, denom, big.NewInt(amount))
	})
	if err != nil {
		t.Fatalf("seed %x with %d %s: %v", to, amount, denom, err)
	}
}

func baseParams() iro.Params {
	return iro.Params{
		ListingOwner:         addr(0x99),
		Currency:             "USDH",
		TreasuryFeeBps:       300,
		ListingOwnerFeeBps:   500,
		ListingOwnerShareBps: 1_000,
		StartOffset:          100,
		Duration:             1_000,
		SoftCap:              big.NewInt(100),
		HardCap:              big.NewInt(1_000),
		UnitPrice:            big.NewInt(1),
	}
}

func TestIROLifecycleThroughNode(t *testing.T) {
	tn := newTestNode(t)
	investor := addr(0x01)
	tn.seed(t, investor, "USDH", 10_000)

	record, evts, err := tn.node.CreateIRO(testAdmin, baseParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(evts) == 0 {
		t.Fatalf("create emitted no events")
	}
	if record.Start != 1_100 || record.End != 2_100 {
		t.Fatalf("window: [%d, %d]", record.Start, record.End)
	}

	tn.now = 1_200
	evts, err = tn.node.CommitIRO(investor, record.ID, 1_000, "USDH", 0, nil)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(evts) == 0 {
		t.Fatalf("commit emitted no events")
	}
	// The hard cap is filled, so the offering succeeds before its end time.
	status, err := tn.node.IROStatus(record.ID)
	if err != nil || status != iro.StatusSuccess {
		t.Fatalf("status after fill: %v, %v", status, err)
	}
	committed, err := tn.node.IROCommitment(record.ID, investor)
	if err != nil || committed.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("commitment: %s, %v", committed, err)
	}

	if _, err := tn.node.ClaimIRO(investor, record.ID, investor); err != nil {
		t.Fatalf("claim: %v", err)
	}
	settled, err := tn.node.GetIRO(record.ID)
	if err != nil || !settled.RealEstateAssigned {
		t.Fatalf("settled record: %+v, %v", settled, err)
	}
	units, err := tn.node.RENFTBalance(investor, settled.RealEstateID)
	if err != nil || units.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("renft units: %s, %v", units, err)
	}

	if _, err := tn.node.WithdrawIRO(record.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	ownerBal, _ := tn.node.Balance(addr(0x99), "USDH")
	treasuryBal, _ := tn.node.Balance(testTreasury, "USDH")
	if ownerBal.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("listing owner fee: %s", ownerBal)
	}
	// Treasury fee plus the remainder, since no reserves sink is wired.
	if treasuryBal.Cmp(big.NewInt(950)) != 0 {
		t.Fatalf("treasury balance: %s", treasuryBal)
	}
}

func TestRejectedTransactionLeavesNoState(t *testing.T) {
	tn := newTestNode(t)
	investor := addr(0x01)
	tn.seed(t, investor, "USDH", 10_000)

	record, _, err := tn.node.CreateIRO(testAdmin, baseParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The window has not opened yet.
	evts, err := tn.node.CommitIRO(investor, record.ID, 10, "USDH", 0, nil)
	if err == nil {
		t.Fatalf("commit before start accepted")
	}
	if evts != nil {
		t.Fatalf("rejected commit published events")
	}
	balance, _ := tn.node.Balance(investor, "USDH")
	if balance.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("balance disturbed by rejected commit: %s", balance)
	}

	// An underfunded commit fails mid-transaction; nothing must stick.
	tn.now = 1_200
	pauper := addr(0x02)
	if _, err := tn.node.CommitIRO(pauper, record.ID, 10, "USDH", 0, nil); err == nil {
		t.Fatalf("underfunded commit accepted")
	}
	committed, _ := tn.node.IROCommitment(record.ID, pauper)
	if committed.Sign() != 0 {
		t.Fatalf("commitment leaked from rolled-back commit: %s", committed)
	}
	stored, _ := tn.node.GetIRO(record.ID)
	if stored.TotalFunding.Sign() != 0 {
		t.Fatalf("funding leaked from rolled-back commit: %s", stored.TotalFunding)
	}
}

func TestVestingThroughNode(t *testing.T) {
	tn := newTestNode(t)
	beneficiary := addr(0x03)
	tn.seed(t, testTreasury, "HZN", 1_000_000)

	position, _, err := tn.node.CreateVestingPosition(testAdmin, beneficiary, big.NewInt(1_000), 0, 1_000, false)
	if err != nil {
		t.Fatalf("create position: %v", err)
	}
	tn.now = int64(position.VestingEnd)
	due, err := tn.node.VestingAmountDue(position.ID)
	if err != nil || due.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("amount due: %s, %v", due, err)
	}
	paid, evts, err := tn.node.ClaimVesting(beneficiary, position.ID)
	if err != nil || paid.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("claim: %s, %v", paid, err)
	}
	if len(evts) == 0 {
		t.Fatalf("claim emitted no events")
	}
	balance, _ := tn.node.Balance(beneficiary, "HZN")
	if balance.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("beneficiary balance: %s", balance)
	}
}

func TestSalePurchaseThroughNode(t *testing.T) {
	tn := newTestNode(t)
	buyer := addr(0x04)
	tn.seed(t, buyer, "USDH", 1_000)

	if _, err := tn.node.SetSaleRoot(buyer, "airdrop", [32]byte{1}); err == nil {
		t.Fatalf("non-owner set root accepted")
	}

	evts, err := tn.node.SalePurchase(buyer, 2)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if len(evts) == 0 {
		t.Fatalf("purchase emitted no events")
	}
	treasuryBal, _ := tn.node.Balance(testTreasury, "USDH")
	if treasuryBal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("treasury proceeds: %s", treasuryBal)
	}
	total := big.NewInt(0)
	for _, collection := range []uint64{10, 11, 12} {
		units, err := tn.node.RENFTBalance(buyer, collection)
		if err != nil {
			t.Fatalf("renft balance: %v", err)
		}
		total.Add(total, units)
	}
	if total.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("minted units across tiers: %s", total)
	}
}

func TestTokenEpochThroughNode(t *testing.T) {
	tn := newTestNode(t)
	minted, evts, err := tn.node.MintTokenEpoch(testAdmin)
	if err != nil || minted.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("mint epoch: %s, %v", minted, err)
	}
	if len(evts) == 0 {
		t.Fatalf("mint emitted no events")
	}
	balance, _ := tn.node.Balance(addr(0xD1), "HZN")
	if balance.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("distributor balance: %s", balance)
	}
}

func TestApplyGenesisSeedsLedgerAndFeeds(t *testing.T) {
	tn := newTestNode(t)
	genesis := &Genesis{
		Accounts: []GenesisAccount{{
			Address: "0x0000000000000000000000000000000000000005",
			// Genesis authors write denoms in whatever case; the seeded
			// balance must land under the same key the engines spend from.
			Balances: map[string]string{"usdh": "12345"},
		}},
		Denoms: []GenesisDenom{{Denom: "USDC", Decimals: 6}},
		Feeds:  []GenesisFeed{{Base: "ETH", Quote: "USDH", Decimals: 8, Price: "200000000000"}},
	}
	if err := tn.node.ApplyGenesis(genesis); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}
	balance, _ := tn.node.Balance(addr(0x05), "USDH")
	if balance.Cmp(big.NewInt(12_345)) != 0 {
		t.Fatalf("seeded balance: %s", balance)
	}
	if _, err := tn.node.Finance().Decimals("USDC"); err != nil {
		t.Fatalf("registered denom missing: %v", err)
	}
	if _, err := tn.node.Oracle().GetPrice("ETH", "USDH"); err != nil {
		t.Fatalf("registered feed missing: %v", err)
	}
}
