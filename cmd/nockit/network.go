package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docxology/nockchain/pkg/errs"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Diagnose connectivity and peers",
}

var networkStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check general internet/DNS reachability",
	RunE:  runNetworkStatus,
}

var networkPeersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List configured bootstrap peers",
	RunE:  runNetworkPeers,
}

var networkPingCmd = &cobra.Command{
	Use:   "ping PEER",
	Short: "Dial one peer's TCP component and report round-trip time",
	Args:  cobra.ExactArgs(1),
	RunE:  runNetworkPing,
}

var networkTrafficCmd = &cobra.Command{
	Use:   "traffic",
	Short: "Sample network counters over an interval",
	RunE:  runNetworkTraffic,
}

func init() {
	networkTrafficCmd.Flags().Int("duration", 1, "sampling interval in seconds")

	networkCmd.AddCommand(networkStatusCmd, networkPeersCmd, networkPingCmd, networkTrafficCmd)
}

func runNetworkStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	for _, h := range a.net.Status(context.Background()) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s reachable=%t rtt=%s error=%s\n", h.Host, h.Reachable, h.RTT, h.Error)
	}
	return nil
}

func runNetworkPeers(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	peers := a.net.Peers()
	if len(peers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no configured bootstrap peers")
		return nil
	}
	for _, p := range peers {
		fmt.Fprintf(cmd.OutOrStdout(), "%s valid=%t\n", p.Raw, p.Valid)
	}
	return nil
}

func runNetworkPing(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	rtt, err := a.net.Ping(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s rtt=%s\n", args[0], rtt)
	return nil
}

func runNetworkTraffic(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	duration, _ := cmd.Flags().GetInt("duration")
	if duration <= 0 {
		return errs.New(errs.User, "--duration must be positive")
	}

	sample, err := a.net.Traffic(context.Background(), time.Duration(duration)*time.Second)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "interval: %s\n", sample.Interval)
	fmt.Fprintf(cmd.OutOrStdout(), "rx_bytes: %d\n", sample.RxBytes)
	fmt.Fprintf(cmd.OutOrStdout(), "tx_bytes: %d\n", sample.TxBytes)
	return nil
}
