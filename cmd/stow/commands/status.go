package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the cache location and the files changed since the last build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := projectDir(cmd)
			if err != nil {
				return err
			}
			report, err := c.app.Status(cmd.Context(), dir)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			_, err = cmd.OutOrStdout().Write([]byte(renderStatus(report)))
			return err
		},
	}
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	return cmd
}
