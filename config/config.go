package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, decoded from TOML.
type Config struct {
	RPCAddress   string `toml:"RPCAddress"`
	RPCAuthToken string `toml:"RPCAuthToken"`
	OpsAddress   string `toml:"OpsAddress"`
	DataDir      string `toml:"DataDir"`
	GenesisFile  string `toml:"GenesisFile"`
	Environment  string `toml:"Environment"`
	LogFile      string `toml:"LogFile"`

	BaseCurrency string `toml:"BaseCurrency"`
	NativeDenom  string `toml:"NativeDenom"`
	GovDenom     string `toml:"GovDenom"`

	Admin           string `toml:"Admin"`
	Treasury        string `toml:"Treasury"`
	ReservesAddress string `toml:"ReservesAddress"`
	EscrowAddress   string `toml:"EscrowAddress"`
	RouterPool      string `toml:"RouterPool"`
	RouterSpreadBps uint32 `toml:"RouterSpreadBps"`

	OracleMaxAgeSeconds uint64 `toml:"OracleMaxAgeSeconds"`

	Sale  *SaleConfig  `toml:"Sale"`
	Token *TokenConfig `toml:"Token"`
}

// SaleConfig configures the rarity-tier sale when present.
type SaleConfig struct {
	BronzeThreshold  uint16 `toml:"BronzeThreshold"`
	SilverThreshold  uint16 `toml:"SilverThreshold"`
	GoldThreshold    uint16 `toml:"GoldThreshold"`
	BronzeCollection uint64 `toml:"BronzeCollection"`
	SilverCollection uint64 `toml:"SilverCollection"`
	GoldCollection   uint64 `toml:"GoldCollection"`
	UnitPrice        string `toml:"UnitPrice"`
	Denom            string `toml:"Denom"`
	MaxPerPurchase   uint64 `toml:"MaxPerPurchase"`
	SupplyCap        uint64 `toml:"SupplyCap"`
	SaleStart        uint64 `toml:"SaleStart"`
	Treasury         string `toml:"Treasury"`
}

// TokenConfig configures the governance token emission curve when present.
type TokenConfig struct {
	Denom           string `toml:"Denom"`
	InitialEmission string `toml:"InitialEmission"`
	DecayBps        uint32 `toml:"DecayBps"`
	SupplyCap       string `toml:"SupplyCap"`
	EpochLength     uint64 `toml:"EpochLength"`
	Distributor     string `toml:"Distributor"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		RPCAddress:          ":8645",
		OpsAddress:          ":9645",
		DataDir:             "./horizon-data",
		GenesisFile:         "",
		Environment:         "local",
		BaseCurrency:        "USDH",
		NativeDenom:         "ETH",
		GovDenom:            "HZN",
		OracleMaxAgeSeconds: 3600,
		RouterSpreadBps:     30,
	}
}

// Load reads the configuration from path, falling back to defaults when the
// file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown fields: %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the daemon depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress required")
	}
	if strings.TrimSpace(c.BaseCurrency) == "" {
		return fmt.Errorf("config: BaseCurrency required")
	}
	if strings.TrimSpace(c.GovDenom) == "" {
		return fmt.Errorf("config: GovDenom required")
	}
	if c.Sale != nil {
		if c.Sale.SupplyCap == 0 {
			return fmt.Errorf("config: Sale.SupplyCap must be positive")
		}
		if c.Sale.GoldThreshold == 0 {
			return fmt.Errorf("config: Sale.GoldThreshold must equal the tier denominator")
		}
	}
	if c.Token != nil {
		if c.Token.EpochLength == 0 {
			return fmt.Errorf("config: Token.EpochLength must be positive")
		}
	}
	return nil
}
