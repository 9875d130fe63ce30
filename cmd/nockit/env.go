package main

import (
	"os"
	"strconv"

	"github.com/docxology/nockchain/pkg/config"
)

// Environment variables CommandSurface recognizes.  The
// config-directory override is read directly by config.Dir via
// NOCKIT_CONFIG_DIR; the rest are applied here, after LoadOrCreate, so
// an operator's shell environment can override a persisted config.toml
// value for one invocation without editing the file.
const (
	envConfigDir      = "NOCKIT_CONFIG_DIR"
	envLogLevel       = "NOCKIT_LOG_LEVEL"
	envLogFormat      = "NOCKIT_LOG_FORMAT"
	envMiningPubKey   = "NOCKIT_MINING_PUBKEY"
	envPeerPort       = "NOCKIT_PEER_PORT"
	envBindAddr       = "NOCKIT_BIND_ADDR"
	envBenchIterations = "NOCKIT_BENCH_ITERATIONS"
	envBenchFormat    = "NOCKIT_BENCH_FORMAT"
)

// applyEnvOverrides mutates cfg in place from any recognized
// environment variables that are set.
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(envLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(envMiningPubKey); v != "" {
		cfg.Mining.DefaultPubKey = v
	}
	if v := os.Getenv(envPeerPort); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Node.PeerPort = n
		}
	}
	if v := os.Getenv(envBindAddr); v != "" {
		cfg.Node.BindAddr = v
	}
	if v := os.Getenv(envBenchIterations); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Benchmarking.Iterations = n
		}
	}
	if v := os.Getenv(envBenchFormat); v != "" {
		cfg.Benchmarking.OutputFormat = v
	}
}
