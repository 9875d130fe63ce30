package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/keystore"
	"github.com/docxology/nockchain/pkg/supervisor"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Generate, inspect and back up wallet keys",
}

var walletKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new Ed25519 key pair and print its public key",
	RunE:  runWalletKeygen,
}

var walletStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report known keys and, if the node is reachable, balance",
	RunE:  runWalletStatus,
}

var walletBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export the wallet key to an encrypted-at-rest backup envelope",
	RunE:  runWalletBackup,
}

var walletRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a key pair from a backup envelope",
	RunE:  runWalletRestore,
}

var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a wallet via the wallet binary's own import format",
	RunE:  runWalletImport,
}

var walletExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a wallet via the wallet binary's own export format",
	RunE:  runWalletExport,
}

func init() {
	walletKeygenCmd.Flags().String("output", "", "write the key file to this path instead of the configured wallet directory")

	walletStatusCmd.Flags().String("pubkey", "", "restrict to one base58 public key")

	walletBackupCmd.Flags().String("output", "", "write the backup envelope to this directory instead of the configured backup directory")
	walletBackupCmd.Flags().String("pubkey", "", "back up this base58 public key instead of the default key")

	walletRestoreCmd.Flags().String("input", "", "backup envelope file to restore from")
	_ = walletRestoreCmd.MarkFlagRequired("input")

	walletImportCmd.Flags().String("input", "", "wallet export file to import")
	_ = walletImportCmd.MarkFlagRequired("input")

	walletExportCmd.Flags().String("output", "", "path to write the wallet binary's export to")
	_ = walletExportCmd.MarkFlagRequired("output")

	walletCmd.AddCommand(walletKeygenCmd, walletStatusCmd, walletBackupCmd, walletRestoreCmd, walletImportCmd, walletExportCmd)
}

func runWalletKeygen(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	pair, err := keystore.Generate()
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = a.walletKeyPath(keystore.PublicBase58(pair.Public))
	}
	if err := keystore.Save(pair, output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "public key: %s\n", keystore.PublicBase58(pair.Public))
	fmt.Fprintf(cmd.OutOrStdout(), "key file: %s\n", output)
	return nil
}

func runWalletStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	pubkey, _ := cmd.Flags().GetString("pubkey")
	walletDir := a.resolvePath(a.cfg.Wallet.WalletDir)

	keys, err := knownWalletKeys(walletDir, pubkey)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no known keys")
		return nil
	}

	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "public key: %s\n", k)
	}

	snap := a.sup.State(nodeStream)
	if snap.State != supervisor.Running {
		fmt.Fprintln(cmd.OutOrStdout(), "node not reachable: balance unavailable")
		return nil
	}

	ctx := context.Background()
	for _, k := range keys {
		out, err := runExternal(ctx, a.cfg.Wallet.BinaryPath, "balance", "--pubkey", k)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "balance (%s): error: %v\n", k, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "balance (%s): %s\n", k, out)
	}
	return nil
}

// knownWalletKeys lists the base58 public keys of every *.key file
// under dir, optionally restricted to one requested key.
func knownWalletKeys(dir, only string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.IO, "list wallet directory", err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".key" {
			continue
		}
		pair, err := keystore.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		pub := keystore.PublicBase58(pair.Public)
		if only != "" && pub != only {
			continue
		}
		out = append(out, pub)
	}
	return out, nil
}

func runWalletBackup(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	pubkey, _ := cmd.Flags().GetString("pubkey")
	pair, err := keystore.Load(a.walletKeyPath(pubkey))
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("output")
	if dir == "" {
		dir = a.resolvePath(a.cfg.Wallet.BackupDir)
	}

	path, err := keystore.ExportBackup(pair, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "backup written: %s\n", path)
	return nil
}

func runWalletRestore(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	input, _ := cmd.Flags().GetString("input")
	pair, err := keystore.ImportBackup(input)
	if err != nil {
		return err
	}

	path := a.walletKeyPath(keystore.PublicBase58(pair.Public))
	if err := keystore.Save(pair, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored public key: %s\n", keystore.PublicBase58(pair.Public))
	fmt.Fprintf(cmd.OutOrStdout(), "key file: %s\n", path)
	return nil
}

// runWalletImport and runWalletExport delegate to the wallet binary's
// own command set, an external collaborator the toolkit never
// inspects, unlike backup/restore which operate on Nockit's own
// KeyStore envelope.
func runWalletImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	input, _ := cmd.Flags().GetString("input")
	out, err := runExternal(context.Background(), a.cfg.Wallet.BinaryPath, "import", input)
	fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func runWalletExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	output, _ := cmd.Flags().GetString("output")
	out, err := runExternal(context.Background(), a.cfg.Wallet.BinaryPath, "export", output)
	fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
