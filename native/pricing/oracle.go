package pricing

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// PriceDecimals is the fixed scale every price returned by GetPrice is
// normalised to, regardless of the underlying feed's native decimals.
const PriceDecimals = 18

var (
	// ErrUnknownPair indicates no feed is registered for the requested pair.
	ErrUnknownPair = errors.New("pricing: unknown pair")
	// ErrStaleRound indicates the latest round is older than the configured
	// freshness window.
	ErrStaleRound = errors.New("pricing: stale round data")
	// ErrIncompleteRound indicates the feed answered for an earlier round
	// than the one it reported.
	ErrIncompleteRound = errors.New("pricing: incomplete round data")
	// ErrInvalidPrice indicates a non-positive answer, which downstream
	// conversion math must never see.
	ErrInvalidPrice = errors.New("pricing: non-positive price")
)

// RoundData mirrors the answer shape of an aggregator feed round.
type RoundData struct {
	RoundID         uint64
	Answer          *big.Int
	UpdatedAt       int64
	AnsweredInRound uint64
}

// Feed exposes the latest round of one base/quote aggregator.
type Feed interface {
	LatestRoundData() (RoundData, error)
	Decimals() uint8
}

// PriceOracle resolves a price for the provided base/quote pair, scaled to
// PriceDecimals. Implementations must reject stale or incomplete rounds.
type PriceOracle interface {
	GetPrice(base, quote string) (*big.Int, error)
}

// Registry is a PriceOracle backed by a set of registered feeds keyed by
// canonical BASE/QUOTE pair.
type Registry struct {
	mu     sync.RWMutex
	feeds  map[string]Feed
	maxAge time.Duration
	nowFn  func() int64
}

// NewRegistry constructs an empty registry. Rounds older than maxAge are
// rejected as stale; a zero maxAge disables the freshness check.
func NewRegistry(maxAge time.Duration) *Registry {
	return &Registry{
		feeds:  make(map[string]Feed),
		maxAge: maxAge,
		nowFn:  func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source used for staleness checks. Primarily
// intended for tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// PairKey renders the canonical pair key for a base/quote combination.
func PairKey(base, quote string) string {
	return strings.ToUpper(strings.TrimSpace(base)) + "/" + strings.ToUpper(strings.TrimSpace(quote))
}

// Register installs the feed for the pair, replacing any previous feed.
func (r *Registry) Register(base, quote string, feed Feed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[PairKey(base, quote)] = feed
}

// GetPrice returns the latest validated price for base/quote, normalised to
// PriceDecimals.
func (r *Registry) GetPrice(base, quote string) (*big.Int, error) {
	r.mu.RLock()
	feed, ok := r.feeds[PairKey(base, quote)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, PairKey(base, quote))
	}
	round, err := feed.LatestRoundData()
	if err != nil {
		return nil, err
	}
	if round.AnsweredInRound < round.RoundID {
		return nil, fmt.Errorf("%w: answered %d for round %d", ErrIncompleteRound, round.AnsweredInRound, round.RoundID)
	}
	if round.UpdatedAt == 0 {
		return nil, ErrIncompleteRound
	}
	if r.maxAge > 0 {
		age := r.nowFn() - round.UpdatedAt
		if age > int64(r.maxAge/time.Second) {
			return nil, fmt.Errorf("%w: updated %ds ago", ErrStaleRound, age)
		}
	}
	if round.Answer == nil || round.Answer.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	return NormalizeDecimals(round.Answer, feed.Decimals(), PriceDecimals), nil
}

// NormalizeDecimals rescales value from one decimal basis to another,
// truncating toward zero when downscaling.
func NormalizeDecimals(value *big.Int, from, to uint8) *big.Int {
	out := new(big.Int).Set(value)
	switch {
	case from < to:
		out.Mul(out, pow10(uint(to-from)))
	case from > to:
		out.Quo(out, pow10(uint(from-to)))
	}
	return out
}

func pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(uint64(n)), nil)
}
