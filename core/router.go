package core

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"horizon/native/iro"
)

var (
	// ErrExcessiveInput mirrors a router rejecting a swap whose required
	// input exceeds the caller's allowance.
	ErrExcessiveInput = errors.New("core: router: excessive input amount")
	// ErrExpiredDeadline rejects swaps past their deadline.
	ErrExpiredDeadline = errors.New("core: router: deadline expired")
)

// OracleRouter is a built-in exact-output swap router that fills orders at
// the oracle rate plus a configured spread, against a liquidity pool address.
// It implements iro.SwapRouter for deployments without an external venue.
type OracleRouter struct {
	finance   *iro.Finance
	ledger    iro.TokenLedger
	pool      [20]byte
	spreadBps uint32
	nowFn     func() int64
}

// NewOracleRouter builds a router over the node's finance context. The pool
// address must hold base-currency inventory for swaps to fill.
func NewOracleRouter(finance *iro.Finance, ledger iro.TokenLedger, pool [20]byte, spreadBps uint32, nowFn func() int64) *OracleRouter {
	return &OracleRouter{finance: finance, ledger: ledger, pool: pool, spreadBps: spreadBps, nowFn: nowFn}
}

// NewOracleRouter builds the built-in router over the node's own ledger using
// the wall clock. Tests that need deterministic time construct the router
// directly with their own nowFn.
func (n *Node) NewOracleRouter(pool [20]byte, spreadBps uint32) *OracleRouter {
	return NewOracleRouter(n.finance, n.mgr, pool, spreadBps, func() int64 { return time.Now().Unix() })
}

// SwapTokensForExactTokens implements iro.SwapRouter. The input denom is
// debited from the recipient's balance and exactly amountOut of the final
// route denom credited back, per the router contract described there.
func (r *OracleRouter) SwapTokensForExactTokens(amountOut, amountInMax *big.Int, path []string, to [20]byte, deadline uint64) ([]*big.Int, error) {
	return r.fill(amountOut, amountInMax, path, to, deadline)
}

// SwapNativeForExactTokens implements iro.SwapRouter for the native denom.
func (r *OracleRouter) SwapNativeForExactTokens(amountOut, valueInMax *big.Int, path []string, to [20]byte, deadline uint64) ([]*big.Int, error) {
	return r.fill(amountOut, valueInMax, path, to, deadline)
}

func (r *OracleRouter) fill(amountOut, amountInMax *big.Int, path []string, to [20]byte, deadline uint64) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("core: router: route too short")
	}
	if now := r.nowFn(); now >= 0 && uint64(now) > deadline {
		return nil, ErrExpiredDeadline
	}
	quoted, err := r.finance.ConvertBaseToPaymentToken(amountOut, path[0])
	if err != nil {
		return nil, err
	}
	amountIn, err := iro.ValueWithSlippage(quoted, r.spreadBps)
	if err != nil {
		return nil, err
	}
	if amountInMax != nil && amountIn.Cmp(amountInMax) > 0 {
		return nil, fmt.Errorf("%w: need %s, max %s", ErrExcessiveInput, amountIn, amountInMax)
	}
	if err := r.ledger.Transfer(to, r.pool, path[0], amountIn); err != nil {
		return nil, err
	}
	if err := r.ledger.Transfer(r.pool, to, path[len(path)-1], amountOut); err != nil {
		return nil, err
	}
	return []*big.Int{amountIn, new(big.Int).Set(amountOut)}, nil
}
