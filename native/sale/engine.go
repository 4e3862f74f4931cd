package sale

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"horizon/core/events"
	"horizon/core/types"
)

// Whitelist categories. The private and whitelist roots are single-use; the
// airdrop root is replaced per round.
const (
	CategoryPrivate   = "private"
	CategoryWhitelist = "whitelist"
	CategoryAirdrop   = "airdrop"
)

var (
	errNilState  = errors.New("sale engine: state not configured")
	errNilMinter = errors.New("sale engine: minter not configured")

	// ErrUnauthorized rejects callers without the required role.
	ErrUnauthorized = errors.New("sale engine: unauthorized")
	// ErrRootAlreadySet guards the single-use roots.
	ErrRootAlreadySet = errors.New("sale engine: root already set")
	// ErrRootNotSet is returned when claiming against a missing root.
	ErrRootNotSet = errors.New("sale engine: root not set")
	// ErrInvalidProof rejects merkle proofs that do not resolve to the root.
	ErrInvalidProof = errors.New("sale engine: invalid proof")
	// ErrAlreadyClaimed rejects repeat claims within one root or round.
	ErrAlreadyClaimed = errors.New("sale engine: already claimed")
	// ErrSaleNotStarted rejects purchases before the public sale opens.
	ErrSaleNotStarted = errors.New("sale engine: sale not started")
	// ErrPurchaseTooLarge enforces the per-purchase cap.
	ErrPurchaseTooLarge = errors.New("sale engine: purchase exceeds cap")
	// ErrSoldOut enforces the global supply cap.
	ErrSoldOut = errors.New("sale engine: supply cap reached")
	// ErrInvalidAmount rejects zero-unit operations.
	ErrInvalidAmount = errors.New("sale engine: amount must be positive")
	// ErrUnknownCategory rejects unrecognised whitelist categories.
	ErrUnknownCategory = errors.New("sale engine: unknown category")
)

type engineState interface {
	SaleRoot(category string) ([32]byte, bool, error)
	SetSaleRoot(category string, root [32]byte) error
	SaleAirdropRound() (uint64, error)
	SetSaleAirdropRound(round uint64) error
	SaleClaimed(category string, round uint64, addr [20]byte) (bool, error)
	SetSaleClaimed(category string, round uint64, addr [20]byte) error
	SalePurchased(addr [20]byte) (uint64, error)
	SetSalePurchased(addr [20]byte, count uint64) error
	SaleTotalSold() (uint64, error)
	SetSaleTotalSold(count uint64) error
	Transfer(from, to [20]byte, denom string, amount *big.Int) error
}

// Minter mints allocated units into the tier collections.
type Minter interface {
	Mint(collection uint64, to [20]byte, amount *big.Int) error
}

// Config freezes the sale parameters at construction.
type Config struct {
	Thresholds     Thresholds
	Collections    [TierCount]uint64
	UnitPrice      *big.Int
	Denom          string
	MaxPerPurchase uint64
	SupplyCap      uint64
	SaleStart      uint64
	Treasury       [20]byte
}

// SanitizeConfig validates the sale configuration.
func SanitizeConfig(cfg Config) (Config, error) {
	if _, err := NewThresholds(cfg.Thresholds[TierBronze], cfg.Thresholds[TierSilver], cfg.Thresholds[TierGold]); err != nil {
		return cfg, err
	}
	if cfg.UnitPrice == nil || cfg.UnitPrice.Sign() < 0 {
		return cfg, fmt.Errorf("sale: unit price must be non-negative")
	}
	cfg.Denom = strings.ToUpper(strings.TrimSpace(cfg.Denom))
	if cfg.Denom == "" {
		return cfg, fmt.Errorf("sale: denom required")
	}
	if cfg.MaxPerPurchase == 0 {
		return cfg, fmt.Errorf("sale: per-purchase cap must be positive")
	}
	if cfg.SupplyCap == 0 {
		return cfg, fmt.Errorf("sale: supply cap must be positive")
	}
	cfg.UnitPrice = new(big.Int).Set(cfg.UnitPrice)
	return cfg, nil
}

type saleEvent struct {
	evt *types.Event
}

func (e saleEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e saleEvent) Event() *types.Event { return e.evt }

// Engine runs the gamified NFT sale: merkle-gated claims plus the public
// purchase path with pseudo-random tier allocation.
type Engine struct {
	state   engineState
	minter  Minter
	emitter events.Emitter
	config  Config
	owner   [20]byte
	nowFn   func() int64
}

// NewEngine creates a sale engine from a validated config.
func NewEngine(cfg Config) (*Engine, error) {
	sanitized, err := SanitizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		emitter: events.NoopEmitter{},
		config:  sanitized,
		nowFn:   func() int64 { return time.Now().Unix() },
	}, nil
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetMinter configures the collection minter.
func (e *Engine) SetMinter(minter Minter) { e.minter = minter }

// SetOwner configures the address allowed to install whitelist roots.
func (e *Engine) SetOwner(addr [20]byte) { e.owner = addr }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Config returns a copy of the frozen sale parameters.
func (e *Engine) Config() Config {
	cfg := e.config
	cfg.UnitPrice = new(big.Int).Set(e.config.UnitPrice)
	return cfg
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(saleEvent{evt: event})
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// SetRoot installs the merkle root for a category. Private and whitelist
// roots are immutable once set; installing a new airdrop root opens a new
// claim round.
func (e *Engine) SetRoot(caller [20]byte, category string, root [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.owner {
		return ErrUnauthorized
	}
	switch category {
	case CategoryPrivate, CategoryWhitelist:
		if _, ok, err := e.state.SaleRoot(category); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: %s", ErrRootAlreadySet, category)
		}
	case CategoryAirdrop:
		round, err := e.state.SaleAirdropRound()
		if err != nil {
			return err
		}
		if err := e.state.SetSaleAirdropRound(round + 1); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if err := e.state.SetSaleRoot(category, root); err != nil {
		return err
	}
	e.emit(NewRootSetEvent(category, root))
	return nil
}

// Claim redeems a whitelist allotment: the caller proves membership of
// (address, amount) under the category root and receives the units allocated
// across the rarity tiers. Each address claims at most once per root (per
// round for the airdrop category).
func (e *Engine) Claim(caller [20]byte, category string, amount uint64, proof [][32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	var round uint64
	switch category {
	case CategoryPrivate, CategoryWhitelist:
	case CategoryAirdrop:
		current, err := e.state.SaleAirdropRound()
		if err != nil {
			return err
		}
		round = current
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	root, ok, err := e.state.SaleRoot(category)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrRootNotSet, category)
	}
	claimed, err := e.state.SaleClaimed(category, round, caller)
	if err != nil {
		return err
	}
	if claimed {
		return fmt.Errorf("%w: %s", ErrAlreadyClaimed, category)
	}
	if !VerifyProof(root, LeafHash(caller, new(big.Int).SetUint64(amount)), proof) {
		return ErrInvalidProof
	}
	if err := e.state.SetSaleClaimed(category, round, caller); err != nil {
		return err
	}
	counts, err := e.allocate(caller, amount)
	if err != nil {
		return err
	}
	e.emit(NewClaimEvent(caller, category, amount, counts))
	return nil
}

// Purchase buys units on the public sale, paying unitPrice per unit into the
// sale treasury, and allocates them across the tiers via the chained draw.
func (e *Engine) Purchase(caller [20]byte, amount uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if e.now() < e.config.SaleStart {
		return ErrSaleNotStarted
	}
	if amount > e.config.MaxPerPurchase {
		return fmt.Errorf("%w: %d over %d", ErrPurchaseTooLarge, amount, e.config.MaxPerPurchase)
	}
	sold, err := e.state.SaleTotalSold()
	if err != nil {
		return err
	}
	if sold+amount > e.config.SupplyCap {
		return fmt.Errorf("%w: %d of %d sold", ErrSoldOut, sold, e.config.SupplyCap)
	}
	cost := new(big.Int).Mul(e.config.UnitPrice, new(big.Int).SetUint64(amount))
	if cost.Sign() > 0 {
		if err := e.state.Transfer(caller, e.config.Treasury, e.config.Denom, cost); err != nil {
			return err
		}
	}
	if err := e.state.SetSaleTotalSold(sold + amount); err != nil {
		return err
	}
	counts, err := e.allocate(caller, amount)
	if err != nil {
		return err
	}
	e.emit(NewPurchaseEvent(caller, amount, cost, counts))
	return nil
}

// allocate runs the rarity draw for the purchase and mints the per-tier
// counts into the configured collections. The buyer's prior purchase count
// feeds the seed, so allocation depends on purchase history.
func (e *Engine) allocate(buyer [20]byte, amount uint64) ([TierCount]uint64, error) {
	var counts [TierCount]uint64
	if e.minter == nil {
		return counts, errNilMinter
	}
	prior, err := e.state.SalePurchased(buyer)
	if err != nil {
		return counts, err
	}
	for _, tier := range e.config.Thresholds.DrawTiers(buyer, e.now(), amount, prior) {
		counts[tier]++
	}
	for tier, count := range counts {
		if count == 0 {
			continue
		}
		if err := e.minter.Mint(e.config.Collections[tier], buyer, new(big.Int).SetUint64(count)); err != nil {
			return counts, err
		}
	}
	if err := e.state.SetSalePurchased(buyer, prior+amount); err != nil {
		return counts, err
	}
	return counts, nil
}

// AirdropRound reports the current airdrop round number.
func (e *Engine) AirdropRound() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.SaleAirdropRound()
}
