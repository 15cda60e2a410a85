package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dropzone/pkg/accept"
)

func presetsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the accept presets",
		Long: `List every accept preset with its label and the accept attribute
it renders to.

Examples:
  dropzone presets
  dropzone presets --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(accept.Presets())
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL\tACCEPT")
			for _, p := range accept.Presets() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Key, p.Label, p.Accept.Attr())
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print presets as JSON")

	return cmd
}
