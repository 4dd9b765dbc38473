package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jam1garner/discord-forge/internal/audio"
	"github.com/jam1garner/discord-forge/internal/converters"
)

// newLoopPointsCommand creates the loop-points subcommand
func newLoopPointsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loop-points FILE",
		Short: "Show the loop range an option selects, without converting",
		Long: "Decode FILE, resample it to 48 kHz as the audio converter does, and print the loop range the\n" +
			"option resolves to. The file is left untouched.",
		Args: cobra.ExactArgs(1),
		RunE: runLoopPointsE,
	}
	cmd.Flags().StringP("option", "o", "", "Loop option, e.g. \"1000-200000\" or \"0:01.5-1:02.25\"")
	return cmd
}

func runLoopPointsE(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI not found in command context")
	}
	option, err := cmd.Flags().GetString("option")
	if err != nil {
		return fmt.Errorf("failed to get option flag: %w", err)
	}

	path := args[0]
	prepared, err := converters.PrepareAudio(cli.fs, audio.NewDefaultRegistry(), path, option, cli.cfg.Audio.ResampleQuality)
	if err != nil {
		return err
	}
	decoded, loop := prepared.Source, prepared.Loop
	total := prepared.Encoded.NumFrames()

	slog.Debug("loop points resolved", "path", path, "option", option, "loop", loop.String())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "source:  %d Hz, %d samples\n", decoded.SampleRate, decoded.NumFrames())
	fmt.Fprintf(out, "encoded: %d Hz, %d samples\n", audio.TargetRate, total)
	fmt.Fprintf(out, "loop:    %s (%s to %s, %d samples)\n",
		loop, sampleTime(loop.Start), sampleTime(loop.End), loop.Len())
	return nil
}

// sampleTime renders a sample index at the encoding rate as m:ss.mmm
func sampleTime(sample uint64) string {
	d := time.Duration(sample) * time.Second / audio.TargetRate
	minutes := d / time.Minute
	d -= minutes * time.Minute
	return fmt.Sprintf("%d:%06.3f", minutes, d.Seconds())
}
