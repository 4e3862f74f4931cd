package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"horizon/config"
	"horizon/core"
	"horizon/native/sale"
	"horizon/native/token"
	"horizon/native/vesting"
	"horizon/observability"
	"horizon/observability/logging"
	"horizon/rpc"
	"horizon/storage"
)

func main() {
	var configPath string
	var genesisPath string
	flag.StringVar(&configPath, "config", "./config.toml", "path to the daemon configuration")
	flag.StringVar(&genesisPath, "genesis", "", "path to a genesis file (overrides the config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("horizond", cfg.Environment, cfg.LogFile)

	if genesisPath == "" {
		genesisPath = cfg.GenesisFile
	}

	db, fresh, err := openDatabase(cfg.DataDir)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	nodeCfg, err := buildNodeConfig(cfg)
	if err != nil {
		logger.Error("node config", "error", err)
		os.Exit(1)
	}
	node, err := core.NewNode(db, nodeCfg, logger)
	if err != nil {
		logger.Error("start node", "error", err)
		os.Exit(1)
	}

	if genesisPath != "" && fresh {
		genesis, err := core.LoadGenesis(genesisPath)
		if err != nil {
			logger.Error("load genesis", "error", err)
			os.Exit(1)
		}
		if err := node.ApplyGenesis(genesis); err != nil {
			logger.Error("apply genesis", "error", err)
			os.Exit(1)
		}
		logger.Info("genesis applied", "accounts", len(genesis.Accounts), "feeds", len(genesis.Feeds))
	}

	if err := wireCollaborators(node, cfg); err != nil {
		logger.Error("wire collaborators", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	node.SetMetrics(metrics)
	if strings.TrimSpace(cfg.OpsAddress) != "" {
		go func() {
			if err := metrics.Serve(cfg.OpsAddress); err != nil {
				logger.Error("ops server stopped", "error", err)
			}
		}()
		logger.Info("ops server listening", "address", cfg.OpsAddress)
	}

	server := rpc.NewServer(node, cfg.RPCAuthToken)
	logger.Info("rpc server listening", "address", cfg.RPCAddress)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", "error", err)
		os.Exit(1)
	}
}

// openDatabase opens the configured backend. An empty or "memory" data dir
// selects the in-memory store; fresh reports whether the store started empty,
// which gates genesis application.
func openDatabase(dataDir string) (storage.Database, bool, error) {
	dataDir = strings.TrimSpace(dataDir)
	if dataDir == "" || dataDir == "memory" {
		return storage.NewMemDB(), true, nil
	}
	_, err := os.Stat(dataDir)
	fresh := os.IsNotExist(err)
	db, err := storage.NewLevelDB(dataDir)
	if err != nil {
		return nil, false, err
	}
	return db, fresh, nil
}

func buildNodeConfig(cfg *config.Config) (core.NodeConfig, error) {
	out := core.NodeConfig{
		BaseCurrency: cfg.BaseCurrency,
		NativeDenom:  cfg.NativeDenom,
		GovDenom:     cfg.GovDenom,
		OracleMaxAge: time.Duration(cfg.OracleMaxAgeSeconds) * time.Second,
	}
	var err error
	if out.Admin, err = optionalAddress(cfg.Admin); err != nil {
		return out, fmt.Errorf("Admin: %w", err)
	}
	if out.Treasury, err = optionalAddress(cfg.Treasury); err != nil {
		return out, fmt.Errorf("Treasury: %w", err)
	}
	if cfg.Sale != nil {
		saleCfg, err := buildSaleConfig(cfg.Sale)
		if err != nil {
			return out, err
		}
		out.Sale = &saleCfg
	}
	if cfg.Token != nil {
		tokenCfg, err := buildTokenConfig(cfg.Token)
		if err != nil {
			return out, err
		}
		out.Token = &tokenCfg
	}
	return out, nil
}

func buildSaleConfig(cfg *config.SaleConfig) (sale.Config, error) {
	thresholds, err := sale.NewThresholds(cfg.BronzeThreshold, cfg.SilverThreshold, cfg.GoldThreshold)
	if err != nil {
		return sale.Config{}, err
	}
	unitPrice, err := parseAmount("Sale.UnitPrice", cfg.UnitPrice)
	if err != nil {
		return sale.Config{}, err
	}
	treasury, err := optionalAddress(cfg.Treasury)
	if err != nil {
		return sale.Config{}, fmt.Errorf("Sale.Treasury: %w", err)
	}
	return sale.Config{
		Thresholds:     thresholds,
		Collections:    [sale.TierCount]uint64{cfg.BronzeCollection, cfg.SilverCollection, cfg.GoldCollection},
		UnitPrice:      unitPrice,
		Denom:          cfg.Denom,
		MaxPerPurchase: cfg.MaxPerPurchase,
		SupplyCap:      cfg.SupplyCap,
		SaleStart:      cfg.SaleStart,
		Treasury:       treasury,
	}, nil
}

func buildTokenConfig(cfg *config.TokenConfig) (token.Config, error) {
	initial, err := parseAmount("Token.InitialEmission", cfg.InitialEmission)
	if err != nil {
		return token.Config{}, err
	}
	supplyCap, err := parseAmount("Token.SupplyCap", cfg.SupplyCap)
	if err != nil {
		return token.Config{}, err
	}
	distributor, err := optionalAddress(cfg.Distributor)
	if err != nil {
		return token.Config{}, fmt.Errorf("Token.Distributor: %w", err)
	}
	return token.Config{
		Denom:           cfg.Denom,
		InitialEmission: initial,
		DecayBps:        cfg.DecayBps,
		SupplyCap:       supplyCap,
		EpochLength:     cfg.EpochLength,
		Distributor:     distributor,
	}, nil
}

// wireCollaborators attaches the optional reserves sink, vote escrow and swap
// router when the config names their addresses.
func wireCollaborators(node *core.Node, cfg *config.Config) error {
	if strings.TrimSpace(cfg.ReservesAddress) != "" {
		addr, err := core.ParseAddress(cfg.ReservesAddress)
		if err != nil {
			return fmt.Errorf("ReservesAddress: %w", err)
		}
		node.SetReserves(core.NewBasicReserves(addr))
	}
	if strings.TrimSpace(cfg.EscrowAddress) != "" {
		addr, err := core.ParseAddress(cfg.EscrowAddress)
		if err != nil {
			return fmt.Errorf("EscrowAddress: %w", err)
		}
		node.SetVoteEscrow(vesting.NewLockBook(addr))
	}
	if strings.TrimSpace(cfg.RouterPool) != "" {
		pool, err := core.ParseAddress(cfg.RouterPool)
		if err != nil {
			return fmt.Errorf("RouterPool: %w", err)
		}
		node.SetRouter(node.NewOracleRouter(pool, cfg.RouterSpreadBps))
	}
	return nil
}

func optionalAddress(s string) ([20]byte, error) {
	if strings.TrimSpace(s) == "" {
		return [20]byte{}, nil
	}
	return core.ParseAddress(s)
}

func parseAmount(field, value string) (*big.Int, error) {
	parsed, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid amount %q", field, value)
	}
	return parsed, nil
}
