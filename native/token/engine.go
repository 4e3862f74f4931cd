package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"horizon/core/events"
	"horizon/core/types"
)

// FeeDenominator is the basis-point denominator for the per-epoch decay.
const FeeDenominator = 10_000

var (
	errNilState = errors.New("token engine: state not configured")

	// ErrUnauthorized rejects callers without the mint role.
	ErrUnauthorized = errors.New("token engine: unauthorized")
	// ErrEpochNotElapsed rejects a mint before the next epoch boundary.
	ErrEpochNotElapsed = errors.New("token engine: epoch not elapsed")
	// ErrEmissionExhausted signals the supply cap has been fully minted.
	ErrEmissionExhausted = errors.New("token engine: emission exhausted")
)

// EmissionState is the persisted cursor along the emission curve.
type EmissionState struct {
	Epoch           uint64   `json:"epoch"`
	StartTime       uint64   `json:"startTime"`
	CurrentEmission *big.Int `json:"currentEmission"`
	Minted          *big.Int `json:"minted"`
}

// Clone returns a deep copy of the emission state.
func (s *EmissionState) Clone() *EmissionState {
	if s == nil {
		return nil
	}
	clone := *s
	clone.CurrentEmission = cloneBigInt(s.CurrentEmission)
	clone.Minted = cloneBigInt(s.Minted)
	return &clone
}

// Config freezes the emission curve parameters.
type Config struct {
	Denom           string
	InitialEmission *big.Int
	DecayBps        uint32
	SupplyCap       *big.Int
	EpochLength     uint64
	Distributor     [20]byte
}

// SanitizeConfig validates the curve parameters.
func SanitizeConfig(cfg Config) (Config, error) {
	cfg.Denom = strings.ToUpper(strings.TrimSpace(cfg.Denom))
	if cfg.Denom == "" {
		return cfg, fmt.Errorf("token: denom required")
	}
	if cfg.InitialEmission == nil || cfg.InitialEmission.Sign() <= 0 {
		return cfg, fmt.Errorf("token: initial emission must be positive")
	}
	if cfg.DecayBps > FeeDenominator {
		return cfg, fmt.Errorf("token: decay bps out of range: %d", cfg.DecayBps)
	}
	if cfg.SupplyCap == nil || cfg.SupplyCap.Sign() <= 0 {
		return cfg, fmt.Errorf("token: supply cap must be positive")
	}
	if cfg.EpochLength == 0 {
		return cfg, fmt.Errorf("token: epoch length must be positive")
	}
	cfg.InitialEmission = new(big.Int).Set(cfg.InitialEmission)
	cfg.SupplyCap = new(big.Int).Set(cfg.SupplyCap)
	return cfg, nil
}

type engineState interface {
	TokenEmission() (*EmissionState, bool, error)
	SetTokenEmission(*EmissionState) error
	Mint(to [20]byte, denom string, amount *big.Int) error
}

type tokenEvent struct {
	evt *types.Event
}

func (e tokenEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e tokenEvent) Event() *types.Event { return e.evt }

// EventTypeEpochMinted is emitted for each epoch emission.
const EventTypeEpochMinted = "token.epoch_minted"

// Engine advances the governance token along its emission curve: each epoch
// mints the current emission to the distributor, then the emission decays by
// DecayBps for the next epoch. The curve is fully determined by the config,
// so replaying the mints reproduces the supply schedule exactly.
type Engine struct {
	state   engineState
	emitter events.Emitter
	config  Config
	owner   [20]byte
	nowFn   func() int64
}

// NewEngine creates a token engine from a validated config.
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

// SetOwner configures the address allowed to trigger epoch mints.
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

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// Emission returns the current emission cursor, initialising a fresh one on
// first read.
func (e *Engine) Emission() (*EmissionState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	st, ok, err := e.state.TokenEmission()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &EmissionState{
			StartTime:       e.now(),
			CurrentEmission: new(big.Int).Set(e.config.InitialEmission),
			Minted:          big.NewInt(0),
		}, nil
	}
	return st.Clone(), nil
}

// MintEpoch mints the next epoch's emission to the distributor. Epoch k is
// mintable once startTime + k*epochLength has elapsed; the minted amount is
// clamped to the remaining supply headroom.
func (e *Engine) MintEpoch(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if caller != e.owner {
		return nil, ErrUnauthorized
	}
	st, err := e.Emission()
	if err != nil {
		return nil, err
	}
	now := e.now()
	boundary := st.StartTime + st.Epoch*e.config.EpochLength
	if now < boundary {
		return nil, fmt.Errorf("%w: epoch %d opens at %d", ErrEpochNotElapsed, st.Epoch, boundary)
	}
	headroom := new(big.Int).Sub(e.config.SupplyCap, st.Minted)
	if headroom.Sign() <= 0 {
		return nil, ErrEmissionExhausted
	}
	emission := new(big.Int).Set(st.CurrentEmission)
	if emission.Cmp(headroom) > 0 {
		emission = headroom
	}
	if emission.Sign() == 0 {
		return nil, ErrEmissionExhausted
	}
	if err := e.state.Mint(e.config.Distributor, e.config.Denom, emission); err != nil {
		return nil, err
	}
	st.Minted = new(big.Int).Add(st.Minted, emission)
	st.Epoch++
	next := new(big.Int).Mul(st.CurrentEmission, big.NewInt(int64(e.config.DecayBps)))
	st.CurrentEmission = next.Quo(next, big.NewInt(FeeDenominator))
	if err := e.state.SetTokenEmission(st); err != nil {
		return nil, err
	}
	e.emitMinted(st, emission)
	return emission, nil
}

func (e *Engine) emitMinted(st *EmissionState, emission *big.Int) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(tokenEvent{evt: &types.Event{Type: EventTypeEpochMinted, Attributes: map[string]string{
		"denom":    e.config.Denom,
		"epoch":    fmt.Sprintf("%d", st.Epoch-1),
		"emission": emission.String(),
		"minted":   st.Minted.String(),
	}}})
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
