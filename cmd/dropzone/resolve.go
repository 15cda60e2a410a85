package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dropzone/internal/errors"
	"github.com/vango-dev/dropzone/pkg/accept"
)

func resolveCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "resolve [accept]",
		Short: "Resolve an accept value to its preset key",
		Long: `Resolve a preset key or a JSON MIME type mapping to the preset it
matches. Values that match no preset resolve to the default preset.

Examples:
  dropzone resolve image/png
  dropzone resolve '{"image/jpeg": [".jpg", ".jpeg"]}'
  dropzone resolve`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}

			spec, err := accept.Parse(raw)
			if err != nil {
				return errors.New(errors.CodeCLIInvalidAccept).
					WithDetail(fmt.Sprintf("cannot parse %q", raw)).
					Wrap(err)
			}

			key := accept.ResolvePresetKey(spec)
			out := cmd.OutOrStdout()
			if !verbose {
				fmt.Fprintln(out, key)
				return nil
			}

			fmt.Fprintf(out, "  Key:    %s\n", key)
			fmt.Fprintf(out, "  Label:  %s\n", accept.Label(key))
			fmt.Fprintf(out, "  Accept: %s\n", accept.Effective(spec).Attr())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print the label and effective accept attribute")

	return cmd
}
