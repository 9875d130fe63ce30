package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/loganalyzer"
	"github.com/docxology/nockchain/pkg/supervisor"
	"github.com/docxology/nockchain/pkg/types"
)

var miningCmd = &cobra.Command{
	Use:   "mining",
	Short: "Start, stop and observe the supervised mining node",
}

var miningStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Spawn the node binary in mining mode",
	RunE:  runMiningStart,
}

var miningStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the supervised mining node gracefully",
	RunE:  runMiningStop,
}

var miningStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the supervised mining node's process state",
	RunE:  runMiningStatus,
}

var miningStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report rolled-up mining telemetry",
	RunE:  runMiningStats,
}

func init() {
	miningStartCmd.Flags().String("pubkey", "", "mining public key")
	_ = miningStartCmd.MarkFlagRequired("pubkey")
	miningStartCmd.Flags().Uint64("difficulty", 0, "difficulty target override")

	miningStatsCmd.Flags().String("period", "", "only report stats recorded within this duration (e.g. 24h)")

	miningCmd.AddCommand(miningStartCmd, miningStopCmd, miningStatusCmd, miningStatsCmd)
}

func runMiningStart(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	pubkey, _ := cmd.Flags().GetString("pubkey")
	difficulty, _ := cmd.Flags().GetUint64("difficulty")

	spec := supervisor.Spec{
		Stream: nodeStream,
		Binary: a.cfg.Node.BinaryPath,
		Args:   miningArgs(a, pubkey, difficulty),
	}
	if err := a.sup.Spawn(context.Background(), spec); err != nil {
		return err
	}

	a.cfg.Mining.DefaultPubKey = pubkey
	if difficulty > 0 {
		a.cfg.Mining.DifficultyTarget = difficulty
	}
	if err := a.saveConfig(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "mining started: pubkey=%s difficulty=%d\n", pubkey, a.cfg.Mining.DifficultyTarget)
	return nil
}

// miningArgs assembles the node binary's argument list from
// ConfigStore: mining-pubkey if present, bind address, peer-list, and
// extra flags, appending --mine and an optional --difficulty override.
func miningArgs(a *app, pubkey string, difficulty uint64) []string {
	var out []string
	for _, peer := range a.cfg.Network.BootstrapPeers {
		out = append(out, "--peer", peer)
	}
	if pubkey != "" {
		out = append(out, "--mining-pubkey", pubkey)
	}
	if a.cfg.Node.BindAddr != "" {
		out = append(out, "--bind", a.cfg.Node.BindAddr)
	}
	out = append(out, "--mine")
	if difficulty > 0 {
		out = append(out, "--difficulty", strconv.FormatUint(difficulty, 10))
	}
	return out
}

func runMiningStop(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.sup.Stop(nodeStream, supervisor.DefaultStopDeadline); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "mining stopped")
	return nil
}

func runMiningStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	snap := a.sup.State(nodeStream)
	fmt.Fprintf(cmd.OutOrStdout(), "state: %s\n", snap.State)
	if snap.PID != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "pid: %d\n", *snap.PID)
	}
	if snap.UptimeSeconds != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "uptime: %ds\n", *snap.UptimeSeconds)
	}
	if snap.ExitCode != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "exit code: %d\n", *snap.ExitCode)
	}
	for _, line := range snap.StderrTail {
		fmt.Fprintf(cmd.OutOrStdout(), "stderr: %s\n", line)
	}
	return nil
}

func runMiningStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := collectMiningStats(a)
	if err != nil {
		return err
	}
	if err := a.store.RecordMiningStats(stats); err != nil {
		return err
	}

	periodStr, _ := cmd.Flags().GetString("period")
	if periodStr == "" {
		printMiningStats(cmd, stats)
		return nil
	}

	period, err := time.ParseDuration(periodStr)
	if err != nil {
		return errs.Wrap(errs.User, "invalid --period", err)
	}
	history, err := a.store.MiningStatsSince(time.Now().Add(-period))
	if err != nil {
		return err
	}
	for _, s := range history {
		printMiningStats(cmd, s)
	}
	return nil
}

func printMiningStats(cmd *cobra.Command, s types.MiningStats) {
	fmt.Fprintf(cmd.OutOrStdout(), "start_time: %s\n", s.StartTime.Format(time.RFC3339))
	fmt.Fprintf(cmd.OutOrStdout(), "blocks_mined: %d\n", s.BlocksMined)
	fmt.Fprintf(cmd.OutOrStdout(), "hash_rate_hps: %.2f\n", s.HashRateHPS)
	fmt.Fprintf(cmd.OutOrStdout(), "difficulty: %d\n", s.Difficulty)
	fmt.Fprintf(cmd.OutOrStdout(), "uptime_seconds: %d\n", s.UptimeSeconds)
	fmt.Fprintf(cmd.OutOrStdout(), "error_count: %d\n", s.ErrorCount)
	if s.LastError != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "last_error: %s\n", s.LastError)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "---")
}

// collectMiningStats derives a MiningStats snapshot from the
// supervised node's observed state and its drained log output, since
// the toolkit never parses the node's wire traffic directly and has no
// RPC into its own telemetry.
func collectMiningStats(a *app) (types.MiningStats, error) {
	snap := a.sup.State(nodeStream)

	records, err := a.logs.Tail(nodeStream, 10000)
	if err != nil {
		return types.MiningStats{}, err
	}
	summary := loganalyzer.Analyze(records, time.Minute)

	stats := types.MiningStats{
		StartTime:  time.Now().Add(-elapsedUptime(snap)),
		Difficulty: a.cfg.Mining.DifficultyTarget,
	}
	if snap.UptimeSeconds != nil {
		stats.UptimeSeconds = *snap.UptimeSeconds
	}
	if series, ok := summary.Series["hash_rate_hps"]; ok && len(series.Points) > 0 {
		stats.HashRateHPS = series.Points[len(series.Points)-1].Value
	}
	for _, rec := range records {
		if rec.Component == "mining" && strings.Contains(strings.ToLower(rec.Message), "block mined") {
			stats.BlocksMined++
		}
	}
	stats.ErrorCount = uint64(summary.Levels[types.LevelError])
	if top := summary.Errors.TopErrors(1); len(top) > 0 {
		stats.LastError = top[0]
	}
	return stats, nil
}

func elapsedUptime(snap supervisor.Snapshot) time.Duration {
	if snap.UptimeSeconds == nil {
		return 0
	}
	return time.Duration(*snap.UptimeSeconds) * time.Second
}
