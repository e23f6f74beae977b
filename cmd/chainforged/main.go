// Command chainforged runs a single delegated-proof-of-stake witness node:
// it loads genesis or an existing block log, replays it into a fresh
// in-memory object store, and, if the local witness key is scheduled for
// the current slot, produces and signs a block.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"

	"chainforge/config"
	"chainforge/core/blocklog"
	"chainforge/core/chain"
	"chainforge/core/forkdb"
	"chainforge/core/genesis"
	"chainforge/core/hardfork"
	"chainforge/core/objectstore"
	"chainforge/core/types"
	"chainforge/crypto"
	"chainforge/internal/passphrase"
	"chainforge/observability/logging"
	"chainforge/observability/otel"
)

func main() {
	configPath := flag.String("config", "chainforged.toml", "path to the node's TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup("chainforged", cfg.Environment, cfg.DataDir).With("node_id", cfg.NodeID)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OtelEndpoint != "" {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: "chainforged",
			Environment: cfg.Environment,
			Endpoint:    cfg.OtelEndpoint,
			Metrics:     true,
			Traces:      true,
		})
		if err != nil {
			logger.Error("init telemetry", "error", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	pass, err := passphrase.NewSource(cfg.ValidatorKMSEnv).Get()
	if err != nil {
		logger.Error("resolve keystore passphrase", "error", err)
		os.Exit(1)
	}
	key, err := crypto.LoadFromKeystore(cfg.ValidatorKeystorePath, pass)
	if err != nil {
		logger.Error("load witness key", "error", err)
		os.Exit(1)
	}
	signingKey := key.PubKey().SigningKeyHex()

	spec, err := genesis.Load(cfg.GenesisFile)
	if err != nil {
		logger.Error("load genesis", "error", err)
		os.Exit(1)
	}

	log, err := blocklog.Open(cfg.DataDir)
	if err != nil {
		logger.Error("open block log", "error", err)
		os.Exit(1)
	}
	defer log.Close()

	db, headID, headHeight, err := replay(spec, log)
	if err != nil {
		logger.Error("replay block log", "error", err)
		os.Exit(1)
	}

	hfTable, err := hardfork.LoadTable(cfg.DataDir + "/hardforks.yaml")
	if err != nil {
		logger.Warn("load hardfork table, running with none scheduled", "error", err)
		hfTable = &hardfork.Table{}
	}
	hf := hardfork.NewManager(hfTable, nil)

	fdb := forkdb.New()
	params := chain.DefaultParams()
	reg := prometheus.NewRegistry()
	metrics := chain.NewMetrics(reg)

	c := chain.New(db, fdb, log, hf, params, logger, metrics)
	c.Bootstrap(headID, headHeight)

	if cfg.MetricsAddress != "" {
		go serveMetrics(cfg.MetricsAddress, reg, logger)
	}

	logger.Info("chainforged started", "witness", cfg.WitnessName, "head_height", headHeight, "network", cfg.NetworkName)

	interval := time.Duration(params.BlockIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("chainforged shutting down")
			return
		case now := <-ticker.C:
			produceIfScheduled(ctx, c, key, cfg.WitnessName, signingKey, uint64(now.Unix()), logger)
		}
	}
}

// replay rebuilds a fresh object store either from genesis, when the block
// log is empty, or by re-applying every logged block in order, since the
// object store itself keeps no on-disk snapshot of its own.
func replay(spec *genesis.Spec, log *blocklog.Log) (*objectstore.Database, types.BlockID, uint64, error) {
	db, err := genesis.BuildDatabase(spec)
	if err != nil {
		return nil, types.BlockID{}, 0, err
	}
	genesisID := genesis.BlockID(spec)
	if log.Empty() {
		return db, genesisID, 0, nil
	}

	fdb := forkdb.New()
	fdb.Reset(genesisID, 0)
	hf := hardfork.NewManager(&hardfork.Table{}, nil)
	replayChain := chain.New(db, fdb, log, hf, chain.DefaultParams(), slog.Default(), chain.NewMetrics(prometheus.NewRegistry()))
	replayChain.Bootstrap(genesisID, 0)

	var lastHeight uint64
	var lastID types.BlockID
	err = log.Iterate(func(height uint64, block *types.Block) error {
		if err := replayChain.PushBlock(context.Background(), block, height); err != nil {
			return err
		}
		lastHeight = height
		lastID = block.Header.ID(height)
		return nil
	})
	if err != nil {
		return nil, types.BlockID{}, 0, err
	}
	return db, lastID, lastHeight, nil
}

func produceIfScheduled(ctx context.Context, c *chain.Chain, key *crypto.PrivateKey, witnessName, signingKeyHex string, when uint64, logger *slog.Logger) {
	if witnessName == "" {
		return
	}
	block, err := c.GenerateBlock(ctx, when, witnessName)
	if err != nil {
		logger.Debug("generate block skipped", "error", err)
		return
	}
	if err := chain.SignBlock(block, key.PrivateKey); err != nil {
		logger.Error("sign block", "error", err)
		return
	}
	if err := c.PushBlock(ctx, block, c.HeadBlockNumber()+1); err != nil {
		logger.Debug("push generated block rejected", "error", err, "witness", witnessName, "signing_key", signingKeyHex)
		return
	}
	logger.Info("produced block", "height", c.HeadBlockNumber(), "witness", witnessName)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server", "error", err)
	}
}
