package core

import (
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"horizon/core/events"
	"horizon/core/types"
	"horizon/native/iro"
	"horizon/native/pricing"
	"horizon/native/renft"
	"horizon/native/sale"
	"horizon/native/token"
	"horizon/native/vesting"
	"horizon/observability"
	"horizon/state"
	"horizon/storage"
)

// NodeConfig carries the protocol parameters frozen at node construction.
type NodeConfig struct {
	BaseCurrency string
	NativeDenom  string
	GovDenom     string
	Admin        [20]byte
	Treasury     [20]byte
	OracleMaxAge time.Duration
	Sale         *sale.Config
	Token        *token.Config
}

// Node owns the state manager and every native engine, and exposes the
// protocol entry points. Each mutating method runs exactly one engine call
// inside one state transaction: either every ledger write lands or none do,
// and events are published only after the transaction commits.
type Node struct {
	mgr       *state.Manager
	collector *events.Collector
	logger    *slog.Logger
	metrics   *observability.Metrics

	iro     *iro.Engine
	vesting *vesting.Engine
	sale    *sale.Engine
	token   *token.Engine
	renft   *renft.Ledger
	oracle  *pricing.Registry
	finance *iro.Finance
}

// NewNode wires the engines over the provided database.
func NewNode(db storage.Database, cfg NodeConfig, logger *slog.Logger) (*Node, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mgr := state.NewManager(db)
	collector := &events.Collector{}

	ledger := renft.NewLedger()
	ledger.SetState(mgr)

	oracle := pricing.NewRegistry(cfg.OracleMaxAge)

	finance := iro.NewFinance(nil, oracle, mgr, cfg.BaseCurrency, cfg.NativeDenom)

	iroEngine := iro.NewEngine()
	iroEngine.SetState(mgr)
	iroEngine.SetFinance(finance)
	iroEngine.SetIssuer(ledger)
	iroEngine.SetAdmin(cfg.Admin)
	iroEngine.SetTreasury(cfg.Treasury)
	iroEngine.SetEmitter(collector)

	vestingEngine := vesting.NewEngine(cfg.GovDenom)
	vestingEngine.SetState(mgr)
	vestingEngine.SetOwner(cfg.Admin)
	vestingEngine.SetTreasury(cfg.Treasury)
	vestingEngine.SetEmitter(collector)

	node := &Node{
		mgr:       mgr,
		collector: collector,
		logger:    logger,
		iro:       iroEngine,
		vesting:   vestingEngine,
		renft:     ledger,
		oracle:    oracle,
		finance:   finance,
	}

	if cfg.Sale != nil {
		saleEngine, err := sale.NewEngine(*cfg.Sale)
		if err != nil {
			return nil, fmt.Errorf("core: sale config: %w", err)
		}
		saleEngine.SetState(mgr)
		saleEngine.SetMinter(ledger)
		saleEngine.SetOwner(cfg.Admin)
		saleEngine.SetEmitter(collector)
		node.sale = saleEngine
	}
	if cfg.Token != nil {
		tokenEngine, err := token.NewEngine(*cfg.Token)
		if err != nil {
			return nil, fmt.Errorf("core: token config: %w", err)
		}
		tokenEngine.SetState(mgr)
		tokenEngine.SetOwner(cfg.Admin)
		tokenEngine.SetEmitter(collector)
		node.token = tokenEngine
	}
	return node, nil
}

// SetMetrics wires the prometheus counters incremented on protocol actions.
func (n *Node) SetMetrics(metrics *observability.Metrics) { n.metrics = metrics }

// SetRouter configures the swap router used for non-base-currency commits.
func (n *Node) SetRouter(router iro.SwapRouter) { n.finance.Router = router }

// SetReserves configures the reserves sink receiving withdrawal remainders.
func (n *Node) SetReserves(sink iro.ReservesSink) { n.iro.SetReserves(sink) }

// SetVoteEscrow configures the vote-escrow collaborator for locked vesting
// claims.
func (n *Node) SetVoteEscrow(escrow vesting.VoteEscrow) { n.vesting.SetEscrow(escrow) }

// SetNowFunc overrides the time source across every engine. Primarily
// intended for tests.
func (n *Node) SetNowFunc(now func() int64) {
	n.iro.SetNowFunc(now)
	n.vesting.SetNowFunc(now)
	n.oracle.SetNowFunc(now)
	if n.sale != nil {
		n.sale.SetNowFunc(now)
	}
	if n.token != nil {
		n.token.SetNowFunc(now)
	}
}

// Oracle exposes the price feed registry for wiring feeds.
func (n *Node) Oracle() *pricing.Registry { return n.oracle }

// Finance exposes the payment context for denom registration.
func (n *Node) Finance() *iro.Finance { return n.finance }

// RENFT exposes the fractional token ledger.
func (n *Node) RENFT() *renft.Ledger { return n.renft }

// view runs fn under the state transaction lock so queries never observe a
// transaction in flight. Every read-only entry point the RPC layer serves
// concurrently goes through here.
func (n *Node) view(fn func() error) error { return n.mgr.View(fn) }

// execute runs fn in one state transaction and returns the events collected
// during a successful commit. A failed transaction leaves no state behind and
// publishes nothing.
func (n *Node) execute(op string, fn func() error) ([]*types.Event, error) {
	var collected []*types.Event
	err := n.mgr.InTransaction(func() error {
		n.collector.Reset()
		if err := fn(); err != nil {
			return err
		}
		collected = n.collector.Drain()
		return nil
	})
	if err != nil {
		n.collector.Reset()
		n.logger.Info("transaction rejected", "op", op, "reason", err.Error())
		if n.metrics != nil {
			n.metrics.RejectedTotal.WithLabelValues(op).Inc()
		}
		return nil, err
	}
	for _, evt := range collected {
		n.logger.Info("event", "type", evt.Type)
	}
	if n.metrics != nil {
		n.metrics.AcceptedTotal.WithLabelValues(op).Inc()
	}
	return collected, nil
}

// CreateIRO registers a new offering.
func (n *Node) CreateIRO(caller [20]byte, params iro.Params) (*iro.IRO, []*types.Event, error) {
	var record *iro.IRO
	evts, err := n.execute("iro_create", func() error {
		var err error
		record, err = n.iro.CreateIRO(caller, params)
		return err
	})
	return record, evts, err
}

// CommitIRO purchases units of an ongoing offering.
func (n *Node) CommitIRO(caller [20]byte, id, units uint64, denom string, slippageBps uint32, route []string) ([]*types.Event, error) {
	return n.execute("iro_commit", func() error {
		return n.iro.Commit(caller, id, units, denom, slippageBps, route)
	})
}

// ClaimIRO settles the caller's position of a finished offering.
func (n *Node) ClaimIRO(caller [20]byte, id uint64, to [20]byte) ([]*types.Event, error) {
	return n.execute("iro_claim", func() error {
		return n.iro.Claim(caller, id, to)
	})
}

// ListingOwnerClaim mints the listing owner's supply share.
func (n *Node) ListingOwnerClaim(caller [20]byte, id uint64) ([]*types.Event, error) {
	return n.execute("iro_listing_owner_claim", func() error {
		return n.iro.ListingOwnerClaim(caller, id)
	})
}

// WithdrawIRO distributes a successful offering's funding.
func (n *Node) WithdrawIRO(id uint64) ([]*types.Event, error) {
	return n.execute("iro_withdraw", func() error {
		return n.iro.Withdraw(id)
	})
}

// GetIRO returns the stored offering record.
func (n *Node) GetIRO(id uint64) (*iro.IRO, error) {
	var record *iro.IRO
	err := n.view(func() error {
		var err error
		record, err = n.iro.Get(id)
		return err
	})
	return record, err
}

// IROStatus derives the offering status at the current time.
func (n *Node) IROStatus(id uint64) (iro.Status, error) {
	var status iro.Status
	err := n.view(func() error {
		var err error
		status, err = n.iro.Status(id)
		return err
	})
	return status, err
}

// IROCommitment returns the caller's cumulative commitment.
func (n *Node) IROCommitment(id uint64, addr [20]byte) (*big.Int, error) {
	var committed *big.Int
	err := n.view(func() error {
		var err error
		committed, err = n.iro.Commitment(id, addr)
		return err
	})
	return committed, err
}

// CreateVestingPosition registers a vesting schedule.
func (n *Node) CreateVestingPosition(caller, beneficiary [20]byte, amount *big.Int, cliff, duration uint64, lockVested bool) (*vesting.Position, []*types.Event, error) {
	var position *vesting.Position
	evts, err := n.execute("vesting_create", func() error {
		var err error
		position, err = n.vesting.CreatePosition(caller, beneficiary, amount, cliff, duration, lockVested)
		return err
	})
	return position, evts, err
}

// ClaimVesting pays the claimable amount of a position.
func (n *Node) ClaimVesting(caller [20]byte, id uint64) (*big.Int, []*types.Event, error) {
	var paid *big.Int
	evts, err := n.execute("vesting_claim", func() error {
		var err error
		paid, err = n.vesting.Claim(caller, id)
		return err
	})
	return paid, evts, err
}

// VestingPosition returns the stored position.
func (n *Node) VestingPosition(id uint64) (*vesting.Position, error) {
	var position *vesting.Position
	err := n.view(func() error {
		var err error
		position, err = n.vesting.Get(id)
		return err
	})
	return position, err
}

// VestingAmountDue reports the claimable amount of a position.
func (n *Node) VestingAmountDue(id uint64) (*big.Int, error) {
	var due *big.Int
	err := n.view(func() error {
		var err error
		due, err = n.vesting.AmountDue(id)
		return err
	})
	return due, err
}

// SetSaleRoot installs a whitelist root on the sale.
func (n *Node) SetSaleRoot(caller [20]byte, category string, root [32]byte) ([]*types.Event, error) {
	if n.sale == nil {
		return nil, fmt.Errorf("core: sale not configured")
	}
	return n.execute("sale_set_root", func() error {
		return n.sale.SetRoot(caller, category, root)
	})
}

// SaleClaim redeems a merkle-gated allotment.
func (n *Node) SaleClaim(caller [20]byte, category string, amount uint64, proof [][32]byte) ([]*types.Event, error) {
	if n.sale == nil {
		return nil, fmt.Errorf("core: sale not configured")
	}
	return n.execute("sale_claim", func() error {
		return n.sale.Claim(caller, category, amount, proof)
	})
}

// SalePurchase buys units on the public sale.
func (n *Node) SalePurchase(caller [20]byte, amount uint64) ([]*types.Event, error) {
	if n.sale == nil {
		return nil, fmt.Errorf("core: sale not configured")
	}
	return n.execute("sale_purchase", func() error {
		return n.sale.Purchase(caller, amount)
	})
}

// MintTokenEpoch advances the governance token emission curve by one epoch.
func (n *Node) MintTokenEpoch(caller [20]byte) (*big.Int, []*types.Event, error) {
	if n.token == nil {
		return nil, nil, fmt.Errorf("core: token not configured")
	}
	var minted *big.Int
	evts, err := n.execute("token_mint_epoch", func() error {
		var err error
		minted, err = n.token.MintEpoch(caller)
		return err
	})
	return minted, evts, err
}

// Balance returns addr's fungible balance in denom.
func (n *Node) Balance(addr [20]byte, denom string) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func() error {
		var err error
		balance, err = n.mgr.BalanceOf(addr, denom)
		return err
	})
	return balance, err
}

// RENFTBalance returns addr's units in the collection.
func (n *Node) RENFTBalance(addr [20]byte, collection uint64) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func() error {
		var err error
		balance, err = n.renft.BalanceOf(addr, collection)
		return err
	})
	return balance, err
}
