package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/databill86/dp-conceptual-search/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "searchctl",
		Short:        "Inspect and run conceptual searches",
		SilenceUsage: true,
	}
	root.AddCommand(
		newQueryCmd(),
		newPaginateCmd(),
		newSearchCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "searchctl "+version.String())
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v) //nolint:wrapcheck // output only
}
