package vesting

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"horizon/core/events"
	"horizon/core/types"
)

var (
	errNilState = errors.New("vesting engine: state not configured")

	// ErrUnauthorized rejects callers without the required role.
	ErrUnauthorized = errors.New("vesting engine: unauthorized")
	// ErrNotFound is returned for an unknown position ID.
	ErrNotFound = errors.New("vesting engine: position not found")
	// ErrNotStarted rejects claims blocked by the configured start guard.
	ErrNotStarted = errors.New("vesting engine: vesting not started")
	// ErrNothingDue is returned when the interpolated schedule has no
	// claimable amount at the current time.
	ErrNothingDue = errors.New("vesting engine: nothing due")
)

type engineState interface {
	VestingPositionPut(*Position) error
	VestingPositionGet(id uint64) (*Position, bool, error)
	VestingNextID() (uint64, error)
	VestingCount() (uint64, error)
	Transfer(from, to [20]byte, denom string, amount *big.Int) error
}

// VoteEscrow is the external collaborator receiving claims flagged with
// LockVested. Address is where the locked tokens are parked.
type VoteEscrow interface {
	Address() [20]byte
	Lock(beneficiary [20]byte, amount *big.Int, period uint64) error
}

type vestingEvent struct {
	evt *types.Event
}

func (e vestingEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e vestingEvent) Event() *types.Event { return e.evt }

// Engine maintains the vesting position ledger for the governance token.
type Engine struct {
	state      engineState
	emitter    events.Emitter
	escrow     VoteEscrow
	owner      [20]byte
	treasury   [20]byte
	denom      string
	guard      StartGuard
	lockPeriod uint64
	nowFn      func() int64
}

// NewEngine creates a vesting engine paying out denom from the treasury
// address. The start guard defaults to GuardIntended.
func NewEngine(denom string) *Engine {
	return &Engine{
		emitter:    events.NoopEmitter{},
		denom:      denom,
		guard:      GuardIntended,
		lockPeriod: uint64((365 * 24 * time.Hour) / time.Second),
		nowFn:      func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetOwner configures the address allowed to create positions.
func (e *Engine) SetOwner(addr [20]byte) { e.owner = addr }

// SetTreasury configures the address holding the unvested token supply.
func (e *Engine) SetTreasury(addr [20]byte) { e.treasury = addr }

// SetEscrow configures the vote-escrow collaborator used for LockVested
// claims. Without one, locked claims pay out directly.
func (e *Engine) SetEscrow(escrow VoteEscrow) { e.escrow = escrow }

// SetStartGuard selects the claim start guard behaviour.
func (e *Engine) SetStartGuard(guard StartGuard) { e.guard = guard }

// SetLockPeriod configures the escrow lock period applied on LockVested
// claims, in seconds.
func (e *Engine) SetLockPeriod(seconds uint64) { e.lockPeriod = seconds }

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
	e.emitter.Emit(vestingEvent{evt: event})
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// CreatePosition registers a new vesting schedule for the beneficiary. The
// cliff shifts the vesting start into the future; interpolation runs from the
// shifted start to start + duration.
func (e *Engine) CreatePosition(caller, beneficiary [20]byte, amount *big.Int, cliff, duration uint64, lockVested bool) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if caller != e.owner {
		return nil, ErrUnauthorized
	}
	now := e.now()
	position := &Position{
		Beneficiary:  beneficiary,
		Amount:       amount,
		AmountPaid:   big.NewInt(0),
		VestingStart: now + cliff,
		VestingEnd:   now + cliff + duration,
		LockVested:   lockVested,
	}
	sanitized, err := Sanitize(position)
	if err != nil {
		return nil, err
	}
	id, err := e.state.VestingNextID()
	if err != nil {
		return nil, err
	}
	sanitized.ID = id
	if err := e.state.VestingPositionPut(sanitized); err != nil {
		return nil, err
	}
	e.emit(NewPositionCreatedEvent(sanitized))
	return sanitized.Clone(), nil
}

// Get returns the stored position.
func (e *Engine) Get(id uint64) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	position, ok, err := e.state.VestingPositionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return position.Clone(), nil
}

// AmountDue reports the claimable amount for the position at the current
// time, without the start guard applied.
func (e *Engine) AmountDue(id uint64) (*big.Int, error) {
	position, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	return position.AmountDueAt(e.now()), nil
}

// Claim pays the claimable amount to the beneficiary, or routes it through
// the vote-escrow lock when the position demands it. AmountPaid grows by
// exactly the amount paid, keeping AmountPaid <= Amount invariant.
func (e *Engine) Claim(caller [20]byte, id uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	position, ok, err := e.state.VestingPositionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if caller != position.Beneficiary {
		return nil, ErrUnauthorized
	}
	now := e.now()
	switch e.guard {
	case GuardLegacy:
		// Reviewed source requires vestingStart >= now to claim, which
		// inverts the evident intent and blocks claims once vesting has
		// started. Kept reproducible behind GuardLegacy.
		if position.VestingStart < now {
			return nil, ErrNotStarted
		}
	default:
		if now < position.VestingStart {
			return nil, ErrNotStarted
		}
	}
	due := position.AmountDueAt(now)
	if due.Sign() == 0 {
		return nil, ErrNothingDue
	}
	position.AmountPaid = new(big.Int).Add(position.AmountPaid, due)
	if err := e.state.VestingPositionPut(position); err != nil {
		return nil, err
	}
	if position.LockVested && e.escrow != nil {
		if err := e.state.Transfer(e.treasury, e.escrow.Address(), e.denom, due); err != nil {
			return nil, err
		}
		if err := e.escrow.Lock(position.Beneficiary, due, e.lockPeriod); err != nil {
			return nil, err
		}
	} else if err := e.state.Transfer(e.treasury, position.Beneficiary, e.denom, due); err != nil {
		return nil, err
	}
	e.emit(NewClaimEvent(position, due))
	return due, nil
}
