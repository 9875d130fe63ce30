package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docxology/nockchain/pkg/bench"
	"github.com/docxology/nockchain/pkg/types"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run fixed-iteration timed benchmarks over crypto/hash/I/O/network primitives",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().Bool("all", true, "run every benchmark category (default)")
	benchCmd.Flags().String("category", "", "run only benchmarks whose name contains this substring (e.g. blake3, ed25519, io, net)")
	benchCmd.Flags().Int("iterations", 0, "override configured iteration count (0 = use config default)")
	benchCmd.Flags().String("output", "", "directory to write the full result set to (default: config dir)")
}

func runBench(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	category, _ := cmd.Flags().GetString("category")
	iterations, _ := cmd.Flags().GetInt("iterations")
	output, _ := cmd.Flags().GetString("output")
	if iterations <= 0 {
		iterations = a.cfg.Benchmarking.Iterations
	}

	suite, err := bench.Suite(context.Background(), a.dir, iterations, a.cfg.Benchmarking.WarmupIterations)
	if err != nil {
		return err
	}
	if category != "" {
		suite.Results = filterByCategory(suite.Results, category)
	}

	for _, r := range suite.Results {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s mean=%.0fns p95=%.0fns p99=%.0fns throughput=%.1f/s success=%.1f%%\n",
			r.Name, r.MeanNS, r.P95NS, r.P99NS, r.ThroughputOpsPerSec, r.SuccessRatePct)
	}

	if !a.cfg.Benchmarking.SaveResults && output == "" {
		return nil
	}
	dir := output
	if dir == "" {
		dir = a.dir
	}
	path, err := bench.SaveReport(dir, suite)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

// filterByCategory narrows Suite's fixed result set to names matching
// the requested --category substring.
func filterByCategory(results []types.BenchmarkResult, category string) []types.BenchmarkResult {
	out := results[:0:0]
	for _, r := range results {
		if strings.Contains(r.Name, category) {
			out = append(out, r)
		}
	}
	return out
}
