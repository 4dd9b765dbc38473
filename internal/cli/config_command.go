package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// newConfigCommand creates the config subcommand group
func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file holding the defaults",
		Long: "Write the default configuration, including every tool command, so it can be edited.\n" +
			"A path ending in .toml is written as TOML, anything else as JSON.",
		Args: cobra.NoArgs,
		RunE: runConfigInitE,
	}
	initCmd.Flags().StringP("path", "p", "", "Destination for the configuration file (default: XDG config dir)")
	initCmd.Flags().Bool("overwrite", false, "Replace an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

func runConfigInitE(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI not found in command context")
	}

	target, _ := cmd.Flags().GetString("path")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	target = strings.TrimSpace(target)
	if target == "" {
		target = cli.configManager.DefaultConfigPath()
	}
	target = filepath.Clean(target)

	if !overwrite {
		exists, err := afero.Exists(cli.fs, target)
		if err != nil {
			return fmt.Errorf("check config path: %w", err)
		}
		if exists {
			return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
		}
	}

	if err := cli.configManager.SaveToFile(cli.configManager.GetDefaultConfig(), target); err != nil {
		return err
	}

	slog.Info("default config written", "path", target)
	cmd.Printf("Wrote default configuration to %s\n", target)
	return nil
}
