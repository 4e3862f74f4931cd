package iro

// The one-time payout actions are guarded by bitmaps: one bit per offering
// ID, packed into uint64 words in state. A bit is set permanently once
// flipped and never cleared.

func (e *Engine) bitmapGet(name string, id uint64) (bool, error) {
	word, err := e.state.IROBitmapWord(name, id/64)
	if err != nil {
		return false, err
	}
	return word&(1<<(id%64)) != 0, nil
}

func (e *Engine) bitmapSet(name string, id uint64) error {
	word, err := e.state.IROBitmapWord(name, id/64)
	if err != nil {
		return err
	}
	return e.state.IROSetBitmapWord(name, id/64, word|1<<(id%64))
}
