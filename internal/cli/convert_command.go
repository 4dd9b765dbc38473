package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jam1garner/discord-forge/internal/convert"
	forgefs "github.com/jam1garner/discord-forge/internal/fs"
)

// newConvertCommand creates the convert subcommand with flags
func newConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Convert files to or from the engine formats",
		Long: "Convert each FILE independently. The converter is chosen by extension and content, and the\n" +
			"result is written beside the input with a new extension. A failure on one file does not stop the rest.\n\n" +
			"The option text carries loop points for audio (\"1000-200000\" or \"0:01.5-1:02.25\"), platform hints\n" +
			"(\"switch\", \"wii u\", \"big\") and target extensions or compression (\"sbactorpack\", \"uncompressed\").",
		Args: cobra.MinimumNArgs(1),
		RunE: runConvertCommandE,
	}

	cmd.Flags().StringP("option", "o", "", "Free-text conversion option")
	cmd.Flags().BoolP("keep", "k", false, "Keep the input file instead of consuming it")
	cmd.Flags().IntP("jobs", "j", 1, "Number of files converted at once")

	return cmd
}

// conversionResult is the outcome for one input file
type conversionResult struct {
	input  string
	output string
	size   int64
	err    error
}

// runConvertCommandE handles the convert subcommand execution
func runConvertCommandE(cmd *cobra.Command, args []string) error {
	slog.Debug("convert command started", "files", len(args))

	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI not found in command context")
	}

	option, err := cmd.Flags().GetString("option")
	if err != nil {
		return fmt.Errorf("failed to get option flag: %w", err)
	}
	keep, err := cmd.Flags().GetBool("keep")
	if err != nil {
		return fmt.Errorf("failed to get keep flag: %w", err)
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", jobs)
	}

	paths, err := forgefs.AbsPaths(args)
	if err != nil {
		return err
	}

	reg, err := cli.registry()
	if err != nil {
		return fmt.Errorf("failed to set up converters: %w", err)
	}

	out := cmd.OutOrStdout()
	decorated := cli.decorated(out)

	var bar *progressbar.ProgressBar
	if decorated && len(paths) > 1 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionClearOnFinish())
	}

	// Each file gets its own dispatcher pass; a failure never cancels the others.
	results := make([]conversionResult, len(paths))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = cli.convertOne(cmd.Context(), reg, convert.Request{Path: path, Option: option}, keep)
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
		}
		printResult(out, res, decorated)
	}

	slog.Info("convert command finished", "files", len(paths), "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(paths))
	}
	return nil
}

// convertOne runs a single dispatcher pass. With keep, the input bytes are
// put back after the dispatcher has consumed the file.
func (c *CLI) convertOne(ctx context.Context, reg *convert.Registry, req convert.Request, keep bool) conversionResult {
	path := req.Path
	res := conversionResult{input: path}

	var original []byte
	var mode os.FileMode = 0o644
	if keep {
		if info, err := c.fs.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
		data, err := afero.ReadFile(c.fs, path)
		if err != nil {
			slog.Warn("cannot read input to keep it", "path", path, "error", err)
		}
		original = data
	}

	res.output, res.err = reg.Handle(ctx, req)

	if original != nil {
		if err := afero.WriteFile(c.fs, path, original, mode); err != nil {
			slog.Error("failed to restore kept input", "path", path, "error", err)
		} else {
			slog.Debug("kept input restored", "path", path)
		}
	}

	if res.err != nil {
		kind, _ := convert.KindOf(res.err)
		slog.Warn("conversion failed", "path", path, "kind", kind.String(), "error", res.err)
		return res
	}

	if info, err := c.fs.Stat(res.output); err == nil {
		res.size = info.Size()
	}
	return res
}

func printResult(w io.Writer, res conversionResult, decorated bool) {
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	if !decorated {
		ok.DisableColor()
		bad.DisableColor()
	}

	name := filepath.Base(res.input)
	if res.err != nil {
		fmt.Fprintf(w, "%s %s: %v\n", bad.Sprint("✗"), name, res.err)
		return
	}
	fmt.Fprintf(w, "%s %s -> %s (%s)\n", ok.Sprint("✓"), name, res.output, humanize.Bytes(uint64(res.size)))
}
