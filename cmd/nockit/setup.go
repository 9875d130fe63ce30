package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docxology/nockchain/pkg/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the configuration directory and defaults, and (re)write helper scripts",
	RunE:  runSetup,
}

func init() {
	setupCmd.Flags().Bool("force", false, "overwrite an existing configuration with defaults")
	setupCmd.Flags().Bool("non-interactive", false, "never prompt; fail instead of asking")
}

func runSetup(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	dir, err := config.Dir(flagConfigDir)
	if err != nil {
		return err
	}

	_, existsErr := os.Stat(filepath.Join(dir, "config.toml"))
	exists := existsErr == nil

	var cfg config.Config
	if exists && force {
		cfg = config.Default()
		if err := config.Save(cfg, dir); err != nil {
			return err
		}
	} else {
		cfg, err = config.LoadOrCreate(dir)
		if err != nil {
			return err
		}
	}

	if err := writeScripts(dir, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "configuration directory: %s\n", dir)
	if exists && !force {
		fmt.Fprintln(cmd.OutOrStdout(), "existing configuration preserved (use --force to reset to defaults)")
	} else if exists && force {
		fmt.Fprintln(cmd.OutOrStdout(), "configuration reset to defaults")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "configuration created with defaults")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "scripts written: start.sh, stop.sh, check.sh")
	return nil
}
