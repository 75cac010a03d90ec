package commands

import (
	"github.com/spf13/cobra"

	"go.trai.ch/stow/internal/adapters/tui"
	"go.trai.ch/stow/internal/app"
)

func (c *CLI) newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [module]",
		Short: "Show the cached module graph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			module := ""
			if len(args) == 1 {
				module = args[0]
			}
			report, err := c.app.Inspect(cmd.Context(), dir, module)
			if err != nil {
				return err
			}

			if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
				return tui.Run(report.CacheDir, moduleNodes(report), c.teaOptions...)
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			_, err = cmd.OutOrStdout().Write([]byte(renderInspect(report)))
			return err
		},
	}
	cmd.Flags().BoolP("interactive", "i", false, "Browse the module graph interactively")
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	cmd.MarkFlagsMutuallyExclusive("interactive", "json")
	return cmd
}

func moduleNodes(report *app.InspectReport) []tui.ModuleNode {
	nodes := make([]tui.ModuleNode, 0, len(report.Modules))
	for _, m := range report.Modules {
		nodes = append(nodes, tui.ModuleNode{
			Identifier:   m.Identifier,
			Kind:         m.Kind,
			Issuer:       m.Issuer,
			Depth:        m.Depth,
			Dependencies: m.Dependencies,
			Outgoing:     m.Outgoing,
			Incoming:     m.Incoming,
		})
	}
	return nodes
}
