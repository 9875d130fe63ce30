package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/docxology/nockchain/pkg/config"
	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/health"
	"github.com/docxology/nockchain/pkg/log"
	"github.com/docxology/nockchain/pkg/logstore"
	"github.com/docxology/nockchain/pkg/netprobe"
	"github.com/docxology/nockchain/pkg/storage"
	"github.com/docxology/nockchain/pkg/supervisor"
	"github.com/docxology/nockchain/pkg/sysprobe"
	"github.com/docxology/nockchain/pkg/types"
)

// nodeStream is the ProcessSupervisor/LogStore stream name the
// supervised node is addressed by throughout CommandSurface. mining
// start spawns the node binary in mining mode on this same stream
// rather than a second, separately configured miner binary, since
// ConfigStore carries only one binary path for the node.
const nodeStream = "node"

// app holds the components a command needs, built once from the
// resolved configuration directory and loaded config. It is built
// eagerly because every nockit invocation is a single short-lived
// command, not a long-running daemon.
type app struct {
	dir    string
	cfg    config.Config
	logCtx *log.Context
	logs   *logstore.Store
	store  storage.Store
	sys    *sysprobe.Probe
	net    *netprobe.Probe
	sup    *supervisor.Supervisor
}

// newApp resolves the config directory, loads/creates its config
// applying environment overrides, and wires the components every
// command group needs.
func newApp(configDirFlag string) (*app, error) {
	dir, err := config.Dir(configDirFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrCreate(dir)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg)

	logCtx := log.NewContext(log.Config{
		Level:  log.Level(cfg.Logging.Level),
		Format: log.Format(cfg.Logging.Format),
		Output: os.Stderr,
	})

	logs, err := logstore.New(config.LogsDir(dir), logstore.Config{
		Format:        types.LogFormat(cfg.Logging.Format),
		RotationBytes: int64(cfg.Logging.RotationSizeMB) * 1024 * 1024,
		RetentionDays: cfg.Logging.RetentionDays,
	})
	if err != nil {
		return nil, err
	}

	store, err := storage.NewBoltStore(dir)
	if err != nil {
		return nil, err
	}

	sys := sysprobe.New(dir)
	net := netprobe.New(cfg.Network.BootstrapPeers, time.Duration(cfg.Network.ConnectTimeoutSec)*time.Second, sys)
	sup := supervisor.New(logs)

	return &app{
		dir:    dir,
		cfg:    cfg,
		logCtx: logCtx,
		logs:   logs,
		store:  store,
		sys:    sys,
		net:    net,
		sup:    sup,
	}, nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	if a.logCtx != nil {
		a.logCtx.Flush()
	}
}

func (a *app) saveConfig() error {
	return config.Save(a.cfg, a.dir)
}

// healthAggregator builds a HealthAggregator expecting the node to be
// running whenever the supervisor itself believes it should be:
// "not running while it was expected to run" escalates to Critical
// only when we ourselves spawned it.
func (a *app) healthAggregator() *health.Aggregator {
	snap := a.sup.State(nodeStream)
	expectRunning := snap.State == supervisor.Running || snap.State == supervisor.Spawning
	return health.NewAggregator(expectRunning)
}

// resolvePath joins p to the configuration directory when p is
// relative, so Node/Wallet config paths like "wallet" or "backups"
// land under the config directory by default while still honoring an
// operator-supplied absolute override.
func (a *app) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.dir, p)
}

// walletKeyPath resolves the on-disk path for a wallet key file named
// by its base58 public key, or "default.key" when pub is empty.
func (a *app) walletKeyPath(pub string) string {
	name := "default.key"
	if pub != "" {
		name = pub + ".key"
	}
	return filepath.Join(a.resolvePath(a.cfg.Wallet.WalletDir), name)
}

// runExternal invokes an external collaborator binary (the node or
// wallet binary's own subcommands, with a subcommand and optional
// flags) and returns its combined output and exit code.
func runExternal(ctx context.Context, binary string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), errs.Wrap(errs.Process, fmt.Sprintf("%s %s", binary, strings.Join(args, " ")), err)
	}
	return string(out), nil
}
