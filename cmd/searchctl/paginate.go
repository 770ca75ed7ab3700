package main

import (
	"github.com/spf13/cobra"

	"github.com/databill86/dp-conceptual-search/internal/domain/search/paginator"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/response"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/sortby"
)

func newPaginateCmd() *cobra.Command {
	var total, page, size, links int

	cmd := &cobra.Command{
		Use:   "paginate",
		Short: "Print the pagination window for a result count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := paginator.Compute(total, page, size, links)
			return printJSON(cmd.OutOrStdout(), response.Assemble(nil, int64(total), 0, w, sortby.Relevance).Paginator)
		},
	}

	cmd.Flags().IntVar(&total, "total", 0, "Total number of results")
	cmd.Flags().IntVar(&page, "page", 1, "Current page")
	cmd.Flags().IntVar(&size, "size", paginator.DefaultResultsPerPage, "Results per page")
	cmd.Flags().IntVar(&links, "links", paginator.DefaultMaxVisibleLinks, "Maximum visible page links")
	return cmd
}
