package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jam1garner/discord-forge/internal/convert"
)

// newFormatsCommand creates the formats subcommand
func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the converters in dispatch order",
		Args:  cobra.NoArgs,
		RunE:  runFormatsCommandE,
	}
}

func runFormatsCommandE(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI not found in command context")
	}

	reg, err := cli.registry()
	if err != nil {
		return fmt.Errorf("failed to set up converters: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	if cli.decorated(cmd.OutOrStdout()) {
		t.SetStyle(table.StyleRounded)
	}
	t.AppendHeader(table.Row{"#", "Converter", "Editable", "Engine"})

	for i, c := range reg.Converters() {
		var formats convert.Formats
		if d, ok := c.(convert.Describer); ok {
			formats = d.Formats()
		}
		t.AppendRow(table.Row{i + 1, c.Name(), strings.Join(formats.Human, " "), strings.Join(formats.Binary, " ")})
	}
	t.Render()
	return nil
}
