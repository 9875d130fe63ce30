package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/loganalyzer"
	"github.com/docxology/nockchain/pkg/logstore"
	"github.com/docxology/nockchain/pkg/types"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail, search, analyze, export and clean LogStore streams",
}

var logsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the most recent records in a stream",
	RunE:  runLogsTail,
}

var logsSearchCmd = &cobra.Command{
	Use:   "search PATTERN",
	Short: "Search a stream for records matching a regular expression",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogsSearch,
}

var logsAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize a stream's level/component histograms and error digest",
	RunE:  runLogsAnalyze,
}

var logsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stream to a file",
	RunE:  runLogsExport,
}

var logsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove rotated segments older than a retention window",
	RunE:  runLogsClean,
}

func init() {
	logsTailCmd.Flags().Int("lines", 50, "number of trailing records to print")
	logsTailCmd.Flags().Bool("follow", false, "keep printing records as they are appended")
	logsTailCmd.Flags().String("file", nodeStream, "stream to read")

	logsSearchCmd.Flags().String("file", nodeStream, "stream to search")

	logsAnalyzeCmd.Flags().String("file", nodeStream, "stream to analyze")
	logsAnalyzeCmd.Flags().String("period", "", "only analyze records within this duration (e.g. 24h)")

	logsExportCmd.Flags().String("file", nodeStream, "stream to export")
	logsExportCmd.Flags().String("format", "json", "export format: json or csv")
	logsExportCmd.Flags().String("output", "", "output file path")
	_ = logsExportCmd.MarkFlagRequired("output")

	logsCleanCmd.Flags().String("file", nodeStream, "stream to clean")
	logsCleanCmd.Flags().Int("days", 14, "remove segments older than this many days")

	logsCmd.AddCommand(logsTailCmd, logsSearchCmd, logsAnalyzeCmd, logsExportCmd, logsCleanCmd)
}

func runLogsTail(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	stream, _ := cmd.Flags().GetString("file")
	lines, _ := cmd.Flags().GetInt("lines")
	follow, _ := cmd.Flags().GetBool("follow")

	records, err := a.logs.Tail(stream, lines)
	if err != nil {
		return err
	}
	for _, rec := range records {
		printLogRecord(cmd, rec)
	}
	if !follow {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, errc := a.logs.Follow(ctx, stream)
	for {
		select {
		case rec, ok := <-out:
			if !ok {
				return nil
			}
			printLogRecord(cmd, rec)
		case err := <-errc:
			if err != nil {
				return err
			}
		}
	}
}

func printLogRecord(cmd *cobra.Command, rec types.LogRecord) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s [%s] %s\n", rec.Timestamp.Format(time.RFC3339), rec.Level, rec.Component, rec.Message)
}

func runLogsSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	stream, _ := cmd.Flags().GetString("file")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out, errc := a.logs.Search(ctx, stream, args[0], logstore.SearchOptions{})
	for {
		select {
		case rec, ok := <-out:
			if !ok {
				return drainErr(errc)
			}
			printLogRecord(cmd, rec)
		case err := <-errc:
			if err != nil {
				return err
			}
		}
	}
}

func drainErr(errc <-chan error) error {
	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

func runLogsAnalyze(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	stream, _ := cmd.Flags().GetString("file")
	records, err := a.logs.Tail(stream, 1<<20)
	if err != nil {
		return err
	}

	periodStr, _ := cmd.Flags().GetString("period")
	if periodStr != "" {
		period, err := time.ParseDuration(periodStr)
		if err != nil {
			return errs.Wrap(errs.User, "invalid --period", err)
		}
		cutoff := time.Now().Add(-period)
		records = filterSince(records, cutoff)
	}

	summary := loganalyzer.Analyze(records, time.Minute)
	fmt.Fprintln(cmd.OutOrStdout(), "levels:")
	for level, count := range summary.Levels {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", level, count)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "components:")
	for component, count := range summary.Components {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", component, count)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "top errors:")
	for _, e := range summary.Errors.TopErrors(5) {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d)\n", e, summary.Errors[e])
	}
	return nil
}

func filterSince(records []types.LogRecord, cutoff time.Time) []types.LogRecord {
	out := records[:0:0]
	for _, r := range records {
		if r.Timestamp.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

func runLogsExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	stream, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	records, err := a.logs.Tail(stream, 1<<20)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "csv":
		data = recordsToCSV(records)
	default:
		data, err = json.MarshalIndent(records, "", "  ")
		if err != nil {
			return errs.Wrap(errs.IO, "marshal export", err)
		}
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errs.Wrap(errs.IO, "write export", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(records), output)
	return nil
}

func recordsToCSV(records []types.LogRecord) []byte {
	buf := make([]byte, 0, 64*len(records))
	buf = append(buf, "timestamp,level,component,message\n"...)
	for _, r := range records {
		line := fmt.Sprintf("%s,%s,%s,%q\n", r.Timestamp.Format(time.RFC3339Nano), r.Level, r.Component, r.Message)
		buf = append(buf, line...)
	}
	return buf
}

func runLogsClean(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	stream, _ := cmd.Flags().GetString("file")
	days, _ := cmd.Flags().GetInt("days")

	if err := a.logs.Clean(stream, days); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleaned segments for %s older than %d days\n", stream, days)
	return nil
}
