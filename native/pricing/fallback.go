package pricing

import (
	"errors"
	"fmt"
)

var errNoUsableRound = errors.New("pricing: no feed produced a usable round")

// FallbackFeed consults an ordered list of feeds and serves the first round
// that passes the completeness and positivity checks. It lets a deployment
// keep a secondary source behind its primary without the registry knowing.
// Every member feed must report the same decimal scale.
type FallbackFeed struct {
	feeds    []Feed
	decimals uint8
}

// NewFallbackFeed builds a composite over feeds, highest priority first.
func NewFallbackFeed(feeds ...Feed) (*FallbackFeed, error) {
	if len(feeds) == 0 {
		return nil, fmt.Errorf("pricing: fallback feed needs at least one member")
	}
	decimals := feeds[0].Decimals()
	for i, feed := range feeds[1:] {
		if feed.Decimals() != decimals {
			return nil, fmt.Errorf("pricing: fallback feed member %d reports %d decimals, want %d", i+1, feed.Decimals(), decimals)
		}
	}
	return &FallbackFeed{feeds: feeds, decimals: decimals}, nil
}

// LatestRoundData implements the Feed interface. Staleness is left to the
// registry, which knows the freshness window; the composite only skips
// members whose round is incomplete or non-positive.
func (f *FallbackFeed) LatestRoundData() (RoundData, error) {
	var lastErr error
	for _, feed := range f.feeds {
		round, err := feed.LatestRoundData()
		if err != nil {
			lastErr = err
			continue
		}
		if round.AnsweredInRound < round.RoundID || round.UpdatedAt == 0 {
			lastErr = ErrIncompleteRound
			continue
		}
		if round.Answer == nil || round.Answer.Sign() <= 0 {
			lastErr = ErrInvalidPrice
			continue
		}
		return round, nil
	}
	return RoundData{}, fmt.Errorf("%w: %v", errNoUsableRound, lastErr)
}

// Decimals implements the Feed interface.
func (f *FallbackFeed) Decimals() uint8 { return f.decimals }
