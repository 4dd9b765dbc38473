package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"
)

// newStagingCommand creates the staging subcommand group
func newStagingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage the shared scratch directory",
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove staged files left behind by interrupted conversions",
		Args:  cobra.NoArgs,
		RunE:  runStagingPruneE,
	}
	prune.Flags().String("older-than", "1 hour ago", "Remove entries last modified before this time (e.g. \"2 days ago\")")
	cmd.AddCommand(prune)

	return cmd
}

func runStagingPruneE(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI not found in command context")
	}

	olderThan, err := cmd.Flags().GetString("older-than")
	if err != nil {
		return fmt.Errorf("failed to get older-than flag: %w", err)
	}

	now := cli.now()
	cutoff, err := naturaldate.Parse(olderThan, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return fmt.Errorf("invalid --older-than %q: %w", olderThan, err)
	}
	if cutoff.After(now) {
		return fmt.Errorf("invalid --older-than %q: resolves to the future", olderThan)
	}

	area := cli.stagingArea()
	slog.Debug("pruning staging area", "dir", area.Dir(), "cutoff", cutoff)

	removed, err := area.Prune(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune %s: %w", area.Dir(), err)
	}

	cmd.Printf("Removed %d staged entries from %s\n", removed, area.Dir())
	return nil
}
