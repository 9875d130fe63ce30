// Package config implements load-or-create, defaults-fill, and atomic
// save of Nockit's single persisted configuration document. The
// document is TOML (`config.toml`), parsed with
// github.com/BurntSushi/toml; see DESIGN.md for why TOML was chosen
// over YAML here.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/docxology/nockchain/pkg/errs"
)

// NodeConfig configures the supervised nockchain node binary.
type NodeConfig struct {
	BinaryPath string `toml:"binary_path"`
	DataDir    string `toml:"data_dir"`
	BindAddr   string `toml:"bind_addr"`
	PeerPort   int    `toml:"peer_port"`
}

// WalletConfig configures the wallet binary and its directories.
type WalletConfig struct {
	BinaryPath string `toml:"binary_path"`
	WalletDir  string `toml:"wallet_dir"`
	BackupDir  string `toml:"backup_dir"`
}

// MiningConfig configures default mining parameters.
type MiningConfig struct {
	DefaultPubKey   string `toml:"default_pubkey"`
	DifficultyTarget uint64 `toml:"difficulty_target"`
	StatsRetentionDays int  `toml:"stats_retention_days"`
}

// NetworkConfig configures bootstrap peers and connection limits.
type NetworkConfig struct {
	BootstrapPeers    []string `toml:"bootstrap_peers"`
	ConnectTimeoutSec int      `toml:"connect_timeout_seconds"`
	MaxPeers          int      `toml:"max_peers"`
}

// LoggingConfig configures LogStore's level, format, rotation and retention.
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	RotationSizeMB int    `toml:"rotation_size_mb"`
	RetentionDays  int    `toml:"retention_days"`
}

// BenchmarkingConfig configures default Benchmarker parameters.
type BenchmarkingConfig struct {
	Iterations       int    `toml:"iterations"`
	WarmupIterations int    `toml:"warmup_iterations"`
	OutputFormat     string `toml:"output_format"`
	SaveResults      bool   `toml:"save_results"`
}

// Config is Nockit's full persisted configuration tree.
// Extras carries forward-compatible string options not modeled above,
// as a single extras string->string map rather than per-option fields.
type Config struct {
	Node         NodeConfig         `toml:"node"`
	Wallet       WalletConfig       `toml:"wallet"`
	Mining       MiningConfig       `toml:"mining"`
	Network      NetworkConfig      `toml:"network"`
	Logging      LoggingConfig      `toml:"logging"`
	Benchmarking BenchmarkingConfig `toml:"benchmarking"`
	Extras       map[string]string  `toml:"extras"`
}

// Default returns the canonical default configuration.
func Default() Config {
	return Config{
		Node: NodeConfig{
			BinaryPath: "nockchain",
			DataDir:    "node-data",
			BindAddr:   "/ip4/0.0.0.0/udp/0/quic-v1",
			PeerPort:   0,
		},
		Wallet: WalletConfig{
			BinaryPath: "nockchain-wallet",
			WalletDir:  "wallet",
			BackupDir:  "backups",
		},
		Mining: MiningConfig{
			DifficultyTarget:   0,
			StatsRetentionDays: 30,
		},
		Network: NetworkConfig{
			BootstrapPeers:    nil,
			ConnectTimeoutSec: 10,
			MaxPeers:          64,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "pretty",
			RotationSizeMB: 64,
			RetentionDays:  14,
		},
		Benchmarking: BenchmarkingConfig{
			Iterations:       1000,
			WarmupIterations: 100,
			OutputFormat:     "json",
			SaveResults:      true,
		},
		Extras: map[string]string{},
	}
}

const fileName = "config.toml"

// Subdirectories created under the config directory.
var subdirs = []string{"logs", "backups", "scripts"}

// Dir resolves the configuration directory: an explicit override, else
// NOCKIT_CONFIG_DIR, else a platform-appropriate application-data
// directory (os.UserConfigDir()/nockit).
func Dir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv("NOCKIT_CONFIG_DIR"); env != "" {
		return env, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errs.Wrap(errs.IO, "resolve application-data directory", err)
	}
	return filepath.Join(base, "nockit"), nil
}

// LoadOrCreate implements ConfigStore.load_or_create(dir) :
// ensure dir and its subdirectories exist, load an existing document
// filling any missing fields from defaults, or write a fresh default
// document. The canonical (defaults-filled) form is always rewritten.
func LoadOrCreate(dir string) (Config, error) {
	if err := ensureDirs(dir); err != nil {
		return Config{}, err
	}

	path := filepath.Join(dir, fileName)
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if _, decErr := toml.Decode(string(data), &cfg); decErr != nil {
			return Config{}, errs.Wrap(errs.Configuration, "invalid configuration", decErr)
		}
		fillDefaults(&cfg)
	} else if !os.IsNotExist(err) {
		return Config{}, errs.Wrap(errs.IO, "read configuration", err)
	}

	if err := Save(cfg, dir); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fillDefaults fills zero-valued fields of a partially-populated
// document with defaults, satisfying the "missing fields filled from
// defaults" invariant without clobbering explicit values.
func fillDefaults(cfg *Config) {
	d := Default()
	if cfg.Node.BinaryPath == "" {
		cfg.Node.BinaryPath = d.Node.BinaryPath
	}
	if cfg.Node.DataDir == "" {
		cfg.Node.DataDir = d.Node.DataDir
	}
	if cfg.Node.BindAddr == "" {
		cfg.Node.BindAddr = d.Node.BindAddr
	}
	if cfg.Wallet.BinaryPath == "" {
		cfg.Wallet.BinaryPath = d.Wallet.BinaryPath
	}
	if cfg.Wallet.WalletDir == "" {
		cfg.Wallet.WalletDir = d.Wallet.WalletDir
	}
	if cfg.Wallet.BackupDir == "" {
		cfg.Wallet.BackupDir = d.Wallet.BackupDir
	}
	if cfg.Mining.StatsRetentionDays == 0 {
		cfg.Mining.StatsRetentionDays = d.Mining.StatsRetentionDays
	}
	if cfg.Network.ConnectTimeoutSec == 0 {
		cfg.Network.ConnectTimeoutSec = d.Network.ConnectTimeoutSec
	}
	if cfg.Network.MaxPeers == 0 {
		cfg.Network.MaxPeers = d.Network.MaxPeers
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}
	if cfg.Logging.RotationSizeMB == 0 {
		cfg.Logging.RotationSizeMB = d.Logging.RotationSizeMB
	}
	if cfg.Logging.RetentionDays == 0 {
		cfg.Logging.RetentionDays = d.Logging.RetentionDays
	}
	if cfg.Benchmarking.Iterations == 0 {
		cfg.Benchmarking.Iterations = d.Benchmarking.Iterations
	}
	if cfg.Benchmarking.WarmupIterations == 0 {
		cfg.Benchmarking.WarmupIterations = d.Benchmarking.WarmupIterations
	}
	if cfg.Benchmarking.OutputFormat == "" {
		cfg.Benchmarking.OutputFormat = d.Benchmarking.OutputFormat
	}
	if cfg.Extras == nil {
		cfg.Extras = map[string]string{}
	}
}

// Save implements ConfigStore.save(cfg, dir) : serialize
// atomically via write-temp-then-rename within dir, the same discipline
// used elsewhere for BoltDB data file placement.
func Save(cfg Config, dir string) error {
	if err := ensureDirs(dir); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errs.Wrap(errs.Configuration, "encode configuration", err)
	}

	path := filepath.Join(dir, fileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return errs.Wrap(errs.IO, "write configuration", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.IO, "commit configuration", err)
	}
	return nil
}

// ensureDirs idempotently creates dir and its logs/backups/scripts
// subdirectories.
func ensureDirs(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.IO, fmt.Sprintf("create configuration directory %s", dir), err)
	}
	for _, sub := range subdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return errs.Wrap(errs.IO, fmt.Sprintf("create %s directory", sub), err)
		}
	}
	return nil
}

// LogsDir, BackupsDir, ScriptsDir resolve the standard subdirectories
// under a loaded configuration's directory.
func LogsDir(dir string) string    { return filepath.Join(dir, "logs") }
func BackupsDir(dir string) string { return filepath.Join(dir, "backups") }
func ScriptsDir(dir string) string { return filepath.Join(dir, "scripts") }
