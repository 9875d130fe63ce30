package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docxology/nockchain/pkg/devtool"
	"github.com/docxology/nockchain/pkg/errs"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Scaffold, test, build and clean a local node/miner working tree",
}

var devInitCmd = &cobra.Command{
	Use:   "init PATH",
	Short: "Scaffold a minimal Go project skeleton at PATH",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevInit,
}

var devTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Run `go test ./...` in the current directory",
	RunE:  runDevTest,
}

var devBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run `go build ./...` in the current directory",
	RunE:  runDevBuild,
}

var devCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Run `go clean ./...` and remove ./bin",
	RunE:  runDevClean,
}

func init() {
	devBuildCmd.Flags().String("target", "debug", "build target: release or debug")

	devCmd.AddCommand(devInitCmd, devTestCmd, devBuildCmd, devCleanCmd)
}

func runDevInit(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	tool := devtool.New(a.logs, ".")
	if err := tool.Init(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "initialized project at %s\n", args[0])
	return nil
}

func runDevTest(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	tool := devtool.New(a.logs, ".")
	if err := tool.Test(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "tests passed (see `nockit logs tail --file dev` for output)")
	return nil
}

func runDevBuild(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	target, _ := cmd.Flags().GetString("target")
	if target != "release" && target != "debug" {
		return errs.New(errs.User, "--target must be release or debug")
	}

	tool := devtool.New(a.logs, ".")
	if err := tool.Build(context.Background(), target); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "build (%s) complete (see `nockit logs tail --file dev` for output)\n", target)
	return nil
}

func runDevClean(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	tool := devtool.New(a.logs, ".")
	if err := tool.Clean(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "clean complete")
	return nil
}
