package core

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"horizon/native/pricing"
)

// Genesis seeds the ledger before the node starts serving: initial balances,
// denom metadata and oracle feeds.
type Genesis struct {
	Accounts []GenesisAccount `yaml:"accounts"`
	Denoms   []GenesisDenom   `yaml:"denoms"`
	Feeds    []GenesisFeed    `yaml:"feeds"`
}

// GenesisAccount seeds one address with starting balances per denom.
type GenesisAccount struct {
	Address  string            `yaml:"address"`
	Balances map[string]string `yaml:"balances"`
}

// GenesisDenom registers the decimal scale of a payment denom.
type GenesisDenom struct {
	Denom    string `yaml:"denom"`
	Decimals uint8  `yaml:"decimals"`
}

// GenesisFeed installs a static oracle feed with an initial price.
type GenesisFeed struct {
	Base     string `yaml:"base"`
	Quote    string `yaml:"quote"`
	Decimals uint8  `yaml:"decimals"`
	Price    string `yaml:"price"`
}

// LoadGenesis reads and parses a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("core: read genesis: %w", err)
	}
	genesis := &Genesis{}
	if err := yaml.Unmarshal(raw, genesis); err != nil {
		return nil, fmt.Errorf("core: parse genesis: %w", err)
	}
	return genesis, nil
}

// ParseAddress decodes a 0x-prefixed hex address.
func ParseAddress(s string) ([20]byte, error) {
	if !common.IsHexAddress(s) {
		return [20]byte{}, fmt.Errorf("core: invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// ApplyGenesis mints the seed balances in one state transaction and wires the
// denom and feed metadata. Applying twice double-mints, so the daemon only
// calls it on a fresh data dir.
func (n *Node) ApplyGenesis(genesis *Genesis) error {
	if genesis == nil {
		return nil
	}
	for _, denom := range genesis.Denoms {
		n.finance.RegisterDenom(denom.Denom, denom.Decimals)
	}
	now := time.Now().Unix()
	for _, feed := range genesis.Feeds {
		price, ok := new(big.Int).SetString(feed.Price, 10)
		if !ok {
			return fmt.Errorf("core: bad feed price %q", feed.Price)
		}
		static := pricing.NewStaticFeed(feed.Decimals)
		static.Push(price, now)
		n.oracle.Register(feed.Base, feed.Quote, static)
	}
	return n.mgr.InTransaction(func() error {
		for _, account := range genesis.Accounts {
			addr, err := ParseAddress(account.Address)
			if err != nil {
				return err
			}
			for denom, amount := range account.Balances {
				value, ok := new(big.Int).SetString(amount, 10)
				if !ok {
					return fmt.Errorf("core: bad balance %q for %s", amount, account.Address)
				}
				if err := n.mgr.Mint(addr, denom, value); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
