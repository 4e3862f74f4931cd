package pricing

import (
	"math/big"
	"sync"
)

// StaticFeed is an in-memory feed whose rounds are pushed by an operator or
// test fixture. It satisfies the Feed interface.
type StaticFeed struct {
	mu       sync.RWMutex
	decimals uint8
	round    RoundData
}

// NewStaticFeed constructs a feed reporting values at the given decimal scale.
func NewStaticFeed(decimals uint8) *StaticFeed {
	return &StaticFeed{decimals: decimals}
}

// Push records a new round. RoundID and AnsweredInRound advance together so a
// pushed round always validates as complete.
func (f *StaticFeed) Push(answer *big.Int, updatedAt int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.round.RoundID + 1
	f.round = RoundData{
		RoundID:         next,
		Answer:          new(big.Int).Set(answer),
		UpdatedAt:       updatedAt,
		AnsweredInRound: next,
	}
}

// PushRaw records an arbitrary round verbatim, letting tests exercise the
// incomplete-round validation paths.
func (f *StaticFeed) PushRaw(round RoundData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.round = round
}

// LatestRoundData implements the Feed interface.
func (f *StaticFeed) LatestRoundData() (RoundData, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	round := f.round
	if round.Answer != nil {
		round.Answer = new(big.Int).Set(round.Answer)
	}
	return round, nil
}

// Decimals implements the Feed interface.
func (f *StaticFeed) Decimals() uint8 {
	return f.decimals
}
