package iro

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"horizon/native/pricing"
)

var (
	// ErrOverflow signals that an intermediate financial computation left the
	// 256-bit word range. The whole operation aborts, matching checked
	// arithmetic semantics.
	ErrOverflow = errors.New("iro finance: arithmetic overflow")
	// ErrZeroPrice guards the conversion path against a zero oracle price,
	// which would otherwise divide by zero.
	ErrZeroPrice = errors.New("iro finance: zero oracle price")
	// ErrBadRoute is returned when a swap route does not connect the payment
	// denom to the offering's base currency.
	ErrBadRoute = errors.New("iro finance: invalid swap route")
	// ErrShareTooLarge rejects a listing owner share of the full denominator,
	// for which the share-of-remainder formula is undefined.
	ErrShareTooLarge = errors.New("iro finance: share must be below denominator")
	// ErrUnknownDenom is returned when a denom has no registered decimals.
	ErrUnknownDenom = errors.New("iro finance: unknown denom")
)

// TokenLedger moves fungible balances between accounts. The state manager
// implements it; finance code never touches storage directly.
type TokenLedger interface {
	Transfer(from, to [20]byte, denom string, amount *big.Int) error
	BalanceOf(addr [20]byte, denom string) (*big.Int, error)
}

// SwapRouter performs exact-output swaps along an explicit route. Router
// implementations debit the input denom from the recipient's balance and
// credit exactly amountOut of the final denom, returning the amounts moved
// per hop; the first element is the input actually spent.
type SwapRouter interface {
	SwapTokensForExactTokens(amountOut, amountInMax *big.Int, path []string, to [20]byte, deadline uint64) ([]*big.Int, error)
	SwapNativeForExactTokens(amountOut, valueInMax *big.Int, path []string, to [20]byte, deadline uint64) ([]*big.Int, error)
}

// Finance bundles the collaborators and denom metadata needed to process
// multi-currency payments for an offering.
type Finance struct {
	Router       SwapRouter
	Oracle       pricing.PriceOracle
	Ledger       TokenLedger
	BaseCurrency string
	NativeDenom  string

	decimals map[string]uint8
}

// NewFinance constructs a finance context for the given base currency.
func NewFinance(router SwapRouter, oracle pricing.PriceOracle, ledger TokenLedger, baseCurrency, nativeDenom string) *Finance {
	return &Finance{
		Router:       router,
		Oracle:       oracle,
		Ledger:       ledger,
		BaseCurrency: strings.ToUpper(strings.TrimSpace(baseCurrency)),
		NativeDenom:  strings.ToUpper(strings.TrimSpace(nativeDenom)),
		decimals:     make(map[string]uint8),
	}
}

// RegisterDenom records the decimal scale of a payment denom.
func (f *Finance) RegisterDenom(denom string, decimals uint8) {
	f.decimals[strings.ToUpper(strings.TrimSpace(denom))] = decimals
}

// Decimals returns the registered decimal scale for denom.
func (f *Finance) Decimals(denom string) (uint8, error) {
	dec, ok := f.decimals[strings.ToUpper(strings.TrimSpace(denom))]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDenom, denom)
	}
	return dec, nil
}

// ProcessPayment pulls amountToPay (denominated in the base currency) from
// the payer into the vault. Three paths: the base currency moves directly;
// any other denom is priced through the oracle, pulled with a slippage
// allowance and swapped exact-out through the router, with the unspent input
// refunded to the payer in the same operation.
func (f *Finance) ProcessPayment(payer, vault [20]byte, denom string, amountToPay *big.Int, slippageBps uint32, route []string, deadline uint64) error {
	denom = strings.ToUpper(strings.TrimSpace(denom))
	if denom == f.BaseCurrency {
		return f.Ledger.Transfer(payer, vault, f.BaseCurrency, amountToPay)
	}
	if err := validateRoute(route, denom, f.BaseCurrency); err != nil {
		return err
	}
	quoted, err := f.ConvertBaseToPaymentToken(amountToPay, denom)
	if err != nil {
		return err
	}
	maxIn, err := ValueWithSlippage(quoted, slippageBps)
	if err != nil {
		return err
	}
	if err := f.Ledger.Transfer(payer, vault, denom, maxIn); err != nil {
		return err
	}
	var amounts []*big.Int
	if denom == f.NativeDenom {
		amounts, err = f.Router.SwapNativeForExactTokens(amountToPay, maxIn, route, vault, deadline)
	} else {
		amounts, err = f.Router.SwapTokensForExactTokens(amountToPay, maxIn, route, vault, deadline)
	}
	if err != nil {
		return err
	}
	if len(amounts) == 0 || amounts[0] == nil {
		return fmt.Errorf("iro finance: router returned no amounts")
	}
	surplus := new(big.Int).Sub(maxIn, amounts[0])
	if surplus.Sign() < 0 {
		return fmt.Errorf("iro finance: router spent beyond allowance")
	}
	if surplus.Sign() > 0 {
		return f.Ledger.Transfer(vault, payer, denom, surplus)
	}
	return nil
}

// ConvertBaseToPaymentToken converts an amount in base-currency smallest
// units to payment-token smallest units using the oracle price, rescaling
// across the two denoms' decimal bases.
func (f *Finance) ConvertBaseToPaymentToken(amount *big.Int, denom string) (*big.Int, error) {
	price, err := f.Oracle.GetPrice(f.BaseCurrency, denom)
	if err != nil {
		return nil, err
	}
	if price.Sign() <= 0 {
		return nil, ErrZeroPrice
	}
	baseDec, err := f.Decimals(f.BaseCurrency)
	if err != nil {
		return nil, err
	}
	quoteDec, err := f.Decimals(denom)
	if err != nil {
		return nil, err
	}
	value, err := checkedMul(amount, price)
	if err != nil {
		return nil, err
	}
	// Price is scaled to pricing.PriceDecimals; undo that scale, then bridge
	// the decimal gap between the two denoms.
	if quoteDec >= baseDec {
		value, err = checkedMul(value, pow10(uint(quoteDec-baseDec)))
		if err != nil {
			return nil, err
		}
		return new(big.Int).Quo(value, pow10(pricing.PriceDecimals)), nil
	}
	divisor := new(big.Int).Mul(pow10(pricing.PriceDecimals), pow10(uint(baseDec-quoteDec)))
	return new(big.Int).Quo(value, divisor), nil
}

// ValueWithSlippage grows value by a basis-point slippage allowance,
// truncating the division.
func ValueWithSlippage(value *big.Int, slippageBps uint32) (*big.Int, error) {
	factor := new(big.Int).SetUint64(uint64(FeeDenominator) + uint64(slippageBps))
	out, err := checkedMul(value, factor)
	if err != nil {
		return nil, err
	}
	return out.Quo(out, big.NewInt(FeeDenominator)), nil
}

// DistributeFunds splits total into the listing owner fee, the treasury fee
// and the remainder. Both fee legs truncate toward zero and the remainder is
// always computed by subtraction, so rounding dust lands with the remainder
// recipient and the three parts sum to total exactly.
func DistributeFunds(total *big.Int, listingOwnerFeeBps, treasuryFeeBps uint32) (listingOwnerAmt, treasuryAmt, remainder *big.Int, err error) {
	if total == nil || total.Sign() < 0 {
		return nil, nil, nil, fmt.Errorf("iro finance: negative total")
	}
	if uint64(listingOwnerFeeBps)+uint64(treasuryFeeBps) > FeeDenominator {
		return nil, nil, nil, fmt.Errorf("iro finance: combined fees exceed denominator")
	}
	listingOwnerAmt, err = bpsShare(total, listingOwnerFeeBps)
	if err != nil {
		return nil, nil, nil, err
	}
	treasuryAmt, err = bpsShare(total, treasuryFeeBps)
	if err != nil {
		return nil, nil, nil, err
	}
	remainder = new(big.Int).Sub(total, listingOwnerAmt)
	remainder.Sub(remainder, treasuryAmt)
	return listingOwnerAmt, treasuryAmt, remainder, nil
}

// ShareToAmount converts a basis-point share of the final supply into the
// token amount to mint on top of totalPurchased. The share dilutes the total
// supply rather than carving into the investor allocation:
// amount = totalPurchased * share / (denominator - share).
func ShareToAmount(totalPurchased *big.Int, shareBps uint32) (*big.Int, error) {
	if shareBps >= FeeDenominator {
		return nil, ErrShareTooLarge
	}
	if shareBps == 0 {
		return big.NewInt(0), nil
	}
	out, err := checkedMul(totalPurchased, new(big.Int).SetUint64(uint64(shareBps)))
	if err != nil {
		return nil, err
	}
	return out.Quo(out, new(big.Int).SetUint64(uint64(FeeDenominator-shareBps))), nil
}

func bpsShare(total *big.Int, bps uint32) (*big.Int, error) {
	out, err := checkedMul(total, new(big.Int).SetUint64(uint64(bps)))
	if err != nil {
		return nil, err
	}
	return out.Quo(out, big.NewInt(FeeDenominator)), nil
}

// checkedMul multiplies within the 256-bit word range, failing on overflow
// instead of growing arbitrarily.
func checkedMul(a, b *big.Int) (*big.Int, error) {
	x, overflow := uint256.FromBig(a)
	if overflow {
		return nil, ErrOverflow
	}
	y, overflow := uint256.FromBig(b)
	if overflow {
		return nil, ErrOverflow
	}
	product, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return product.ToBig(), nil
}

func validateRoute(route []string, from, to string) error {
	if len(route) < 2 {
		return fmt.Errorf("%w: need at least two hops", ErrBadRoute)
	}
	first := strings.ToUpper(strings.TrimSpace(route[0]))
	last := strings.ToUpper(strings.TrimSpace(route[len(route)-1]))
	if first != from || last != to {
		return fmt.Errorf("%w: %s -> %s", ErrBadRoute, first, last)
	}
	return nil
}

func pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(uint64(n)), nil)
}
