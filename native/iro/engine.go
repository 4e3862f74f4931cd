package iro

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"horizon/core/events"
	"horizon/core/types"
)

var (
	errNilState   = errors.New("iro engine: state not configured")
	errNilFinance = errors.New("iro engine: finance not configured")
	errNilIssuer  = errors.New("iro engine: issuer not configured")

	// ErrNotFound is returned for an unknown offering ID.
	ErrNotFound = errors.New("iro engine: offering not found")
	// ErrUnauthorized rejects callers without the required role.
	ErrUnauthorized = errors.New("iro engine: unauthorized")
	// ErrNotOngoing rejects commits outside the funding window.
	ErrNotOngoing = errors.New("iro engine: offering not ongoing")
	// ErrNotFinished rejects claims while the offering can still change.
	ErrNotFinished = errors.New("iro engine: offering not finished")
	// ErrNotSuccessful gates the payout actions on a successful outcome.
	ErrNotSuccessful = errors.New("iro engine: offering not successful")
	// ErrHardCapExceeded rejects a commit that would push funding past the
	// hard cap. Re-validated at execution time so near-simultaneous commits
	// cannot overshoot.
	ErrHardCapExceeded = errors.New("iro engine: hard cap exceeded")
	// ErrNothingToClaim makes Claim idempotent: once a ledger entry is
	// consumed a repeat call finds nothing.
	ErrNothingToClaim = errors.New("iro engine: nothing to claim")
	// ErrAlreadyWithdrawn enforces the at-most-once withdrawal bitmap.
	ErrAlreadyWithdrawn = errors.New("iro engine: already withdrawn")
	// ErrAlreadyClaimed enforces the at-most-once listing owner claim bitmap.
	ErrAlreadyClaimed = errors.New("iro engine: already claimed")
	// ErrInvalidAmount rejects zero-unit commits.
	ErrInvalidAmount = errors.New("iro engine: amount must be positive")
	// ErrCurrencyMismatch rejects offerings denominated in anything other
	// than the finance context's base currency. Commits always settle into
	// the vault in the base currency, so an offering recorded under a
	// different denom could never refund or withdraw what it collected.
	ErrCurrencyMismatch = errors.New("iro engine: offering currency must match base currency")
)

const (
	bitmapWithdrawn          = "withdrawn"
	bitmapListingOwnerClaims = "listingOwnerClaimed"

	// swapDeadlineSlack is the window granted to the router for an exact-out
	// swap initiated inside a commit.
	swapDeadlineSlack = 15 * time.Minute
)

type engineState interface {
	IROPut(*IRO) error
	IROGet(id uint64) (*IRO, bool, error)
	IRONextID() (uint64, error)
	IROCount() (uint64, error)
	IROCommitment(id uint64, addr [20]byte) (*big.Int, error)
	IROSetCommitment(id uint64, addr [20]byte, amount *big.Int) error
	IROBitmapWord(name string, word uint64) (uint64, error)
	IROSetBitmapWord(name string, word uint64, value uint64) error
	Transfer(from, to [20]byte, denom string, amount *big.Int) error
	BalanceOf(addr [20]byte, denom string) (*big.Int, error)
}

// Issuer is the real-estate NFT collaborator: it allocates sequential
// collection identifiers and mints fractional units into them.
type Issuer interface {
	Mint(collection uint64, to [20]byte, amount *big.Int) error
	NextRealEstateID() (uint64, error)
}

// ReservesSink receives the post-fee remainder of a successful offering and
// records which property it backs.
type ReservesSink interface {
	Address() [20]byte
	Deposit(realEstateID uint64, amount *big.Int, denom string) error
}

type iroEvent struct {
	evt *types.Event
}

func (e iroEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e iroEvent) Event() *types.Event { return e.evt }

// Engine drives the offering state machine. Every public method is one atomic
// state transition when run inside a state transaction.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	finance  *Finance
	issuer   Issuer
	reserves ReservesSink
	admin    [20]byte
	treasury [20]byte
	nowFn    func() int64
}

// NewEngine creates an offering engine with a no-op emitter. State, finance
// and issuer must be wired before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetFinance configures the payment processing context.
func (e *Engine) SetFinance(finance *Finance) { e.finance = finance }

// SetIssuer configures the real-estate NFT collaborator.
func (e *Engine) SetIssuer(issuer Issuer) { e.issuer = issuer }

// SetReserves configures the optional reserves sink. When nil the remainder
// of a withdrawal goes to the treasury.
func (e *Engine) SetReserves(sink ReservesSink) { e.reserves = sink }

// SetAdmin configures the address allowed to create offerings.
func (e *Engine) SetAdmin(addr [20]byte) { e.admin = addr }

// SetTreasury configures the protocol treasury address.
func (e *Engine) SetTreasury(addr [20]byte) { e.treasury = addr }

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

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(iroEvent{evt: event})
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// VaultAddress derives the deterministic escrow address holding an offering's
// funds until claim/withdraw time.
func VaultAddress(id uint64) [20]byte {
	buf := make([]byte, 0, 24)
	buf = append(buf, []byte("horizon/iro/vault/")...)
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], id)
	buf = append(buf, raw[:]...)
	digest := ethcrypto.Keccak256(buf)
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

// CreateIRO registers a new offering. Only the admin may call it; everything
// but the funding counter is frozen once the record is stored.
func (e *Engine) CreateIRO(caller [20]byte, params Params) (*IRO, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.finance == nil {
		return nil, errNilFinance
	}
	if caller != e.admin {
		return nil, ErrUnauthorized
	}
	sanitized, err := SanitizeParams(params)
	if err != nil {
		return nil, err
	}
	if sanitized.Currency != e.finance.BaseCurrency {
		return nil, fmt.Errorf("%w: %s (base is %s)", ErrCurrencyMismatch, sanitized.Currency, e.finance.BaseCurrency)
	}
	now := e.now()
	id, err := e.state.IRONextID()
	if err != nil {
		return nil, err
	}
	record := &IRO{
		ID:                   id,
		ListingOwner:         sanitized.ListingOwner,
		Currency:             sanitized.Currency,
		Start:                now + sanitized.StartOffset,
		End:                  now + sanitized.StartOffset + sanitized.Duration,
		TreasuryFeeBps:       sanitized.TreasuryFeeBps,
		ListingOwnerFeeBps:   sanitized.ListingOwnerFeeBps,
		ListingOwnerShareBps: sanitized.ListingOwnerShareBps,
		SoftCap:              sanitized.SoftCap,
		HardCap:              sanitized.HardCap,
		UnitPrice:            sanitized.UnitPrice,
		TotalFunding:         big.NewInt(0),
	}
	if err := e.state.IROPut(record); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(record))
	return record.Clone(), nil
}

// Get returns the stored offering record.
func (e *Engine) Get(id uint64) (*IRO, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.IROGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return record.Clone(), nil
}

// Count returns the number of offerings created so far.
func (e *Engine) Count() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.IROCount()
}

// Status derives the current status of the offering.
func (e *Engine) Status(id uint64) (Status, error) {
	record, err := e.Get(id)
	if err != nil {
		return StatusPending, err
	}
	return record.StatusAt(e.now()), nil
}

// Commitment returns the cumulative committed base-currency value for a user.
func (e *Engine) Commitment(id uint64, addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.Get(id); err != nil {
		return nil, err
	}
	return e.state.IROCommitment(id, addr)
}

// Commit purchases units units of the offering, paying in denom. The payment
// is pulled (converting through the router when denom differs from the base
// currency) into the offering vault; the commit ledger and funding counter
// move together in the same transition.
func (e *Engine) Commit(caller [20]byte, id uint64, units uint64, denom string, slippageBps uint32, route []string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.finance == nil {
		return errNilFinance
	}
	if units == 0 {
		return ErrInvalidAmount
	}
	record, ok, err := e.state.IROGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	now := e.now()
	if status := record.StatusAt(now); status != StatusOngoing {
		return fmt.Errorf("%w: status %s", ErrNotOngoing, status)
	}
	value, err := checkedMul(new(big.Int).SetUint64(units), record.UnitPrice)
	if err != nil {
		return err
	}
	funded := new(big.Int).Add(record.TotalFunding, value)
	if funded.Cmp(record.HardCap) > 0 {
		return fmt.Errorf("%w: %s over %s", ErrHardCapExceeded, funded, record.HardCap)
	}
	vault := VaultAddress(id)
	deadline := now + uint64(swapDeadlineSlack/time.Second)
	if err := e.finance.ProcessPayment(caller, vault, denom, value, slippageBps, route, deadline); err != nil {
		return err
	}
	committed, err := e.state.IROCommitment(id, caller)
	if err != nil {
		return err
	}
	if err := e.state.IROSetCommitment(id, caller, new(big.Int).Add(committed, value)); err != nil {
		return err
	}
	record.TotalFunding = funded
	if err := e.state.IROPut(record); err != nil {
		return err
	}
	e.emit(NewCommitEvent(record, caller, value))
	return nil
}

// Claim settles a user's position once the offering has finished. On success
// the proportional share of the property collection is minted to the
// recipient; on failure the full commitment is refunded in the base currency.
// Either way the ledger entry is consumed, so a second call finds nothing.
func (e *Engine) Claim(caller [20]byte, id uint64, to [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	record, ok, err := e.state.IROGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	status := record.StatusAt(e.now())
	if !status.Finished() {
		return fmt.Errorf("%w: status %s", ErrNotFinished, status)
	}
	committed, err := e.state.IROCommitment(id, caller)
	if err != nil {
		return err
	}
	if committed.Sign() == 0 {
		return ErrNothingToClaim
	}
	if err := e.state.IROSetCommitment(id, caller, big.NewInt(0)); err != nil {
		return err
	}
	if status == StatusFail {
		if err := e.state.Transfer(VaultAddress(id), caller, record.Currency, committed); err != nil {
			return err
		}
		e.emit(NewRefundEvent(record, caller, committed))
		return nil
	}
	if e.issuer == nil {
		return errNilIssuer
	}
	collection, err := e.ensureRealEstateID(record)
	if err != nil {
		return err
	}
	unitsDue := new(big.Int).Quo(committed, record.UnitPrice)
	if err := e.issuer.Mint(collection, to, unitsDue); err != nil {
		return err
	}
	e.emit(NewClaimEvent(record, caller, to, unitsDue))
	return nil
}

// ListingOwnerClaim mints the listing owner's contractual share of the final
// supply. Gated by the claim bitmap, so it executes at most once per offering.
func (e *Engine) ListingOwnerClaim(caller [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.issuer == nil {
		return errNilIssuer
	}
	record, ok, err := e.state.IROGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if caller != record.ListingOwner {
		return ErrUnauthorized
	}
	if status := record.StatusAt(e.now()); status != StatusSuccess {
		return fmt.Errorf("%w: status %s", ErrNotSuccessful, status)
	}
	claimed, err := e.bitmapGet(bitmapListingOwnerClaims, id)
	if err != nil {
		return err
	}
	if claimed {
		return ErrAlreadyClaimed
	}
	totalPurchased := new(big.Int).Quo(record.TotalFunding, record.UnitPrice)
	share, err := ShareToAmount(totalPurchased, record.ListingOwnerShareBps)
	if err != nil {
		return err
	}
	collection, err := e.ensureRealEstateID(record)
	if err != nil {
		return err
	}
	if share.Sign() > 0 {
		if err := e.issuer.Mint(collection, caller, share); err != nil {
			return err
		}
	}
	if err := e.bitmapSet(bitmapListingOwnerClaims, id); err != nil {
		return err
	}
	e.emit(NewListingOwnerClaimEvent(record, share))
	return nil
}

// Withdraw pays out a successful offering's funding: the listing owner fee,
// the treasury fee, and the remainder to the reserves sink (or the treasury
// when no sink is configured). Gated by the withdrawal bitmap.
func (e *Engine) Withdraw(id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	record, ok, err := e.state.IROGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if status := record.StatusAt(e.now()); status != StatusSuccess {
		return fmt.Errorf("%w: status %s", ErrNotSuccessful, status)
	}
	withdrawn, err := e.bitmapGet(bitmapWithdrawn, id)
	if err != nil {
		return err
	}
	if withdrawn {
		return ErrAlreadyWithdrawn
	}
	listingOwnerAmt, treasuryAmt, remainder, err := DistributeFunds(record.TotalFunding, record.ListingOwnerFeeBps, record.TreasuryFeeBps)
	if err != nil {
		return err
	}
	vault := VaultAddress(id)
	if listingOwnerAmt.Sign() > 0 {
		if err := e.state.Transfer(vault, record.ListingOwner, record.Currency, listingOwnerAmt); err != nil {
			return err
		}
	}
	if treasuryAmt.Sign() > 0 {
		if err := e.state.Transfer(vault, e.treasury, record.Currency, treasuryAmt); err != nil {
			return err
		}
	}
	if remainder.Sign() > 0 {
		if e.reserves != nil {
			collection, err := e.ensureRealEstateID(record)
			if err != nil {
				return err
			}
			if err := e.state.Transfer(vault, e.reserves.Address(), record.Currency, remainder); err != nil {
				return err
			}
			if err := e.reserves.Deposit(collection, remainder, record.Currency); err != nil {
				return err
			}
		} else if err := e.state.Transfer(vault, e.treasury, record.Currency, remainder); err != nil {
			return err
		}
	}
	if err := e.bitmapSet(bitmapWithdrawn, id); err != nil {
		return err
	}
	e.emit(NewWithdrawEvent(record, listingOwnerAmt, treasuryAmt, remainder))
	return nil
}

// ensureRealEstateID memoises the collection assigned to the offering: the
// first settlement action allocates it, every later one reuses it.
func (e *Engine) ensureRealEstateID(record *IRO) (uint64, error) {
	if record.RealEstateAssigned {
		return record.RealEstateID, nil
	}
	id, err := e.issuer.NextRealEstateID()
	if err != nil {
		return 0, err
	}
	record.RealEstateID = id
	record.RealEstateAssigned = true
	if err := e.state.IROPut(record); err != nil {
		return 0, err
	}
	return id, nil
}
