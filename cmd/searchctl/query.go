package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/query"
)

func newQueryCmd() *cobra.Command {
	var (
		labels []string
		dims   int
	)

	cmd := &cobra.Command{
		Use:   "query <term>",
		Short: "Print the lexical query built for a search term",
		Long: `Builds the lexical baseline query for a search term offline. With --label
the baseline is expanded with the given keyword labels, as a relevance
search does with predicted labels.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := query.NewBuilder(field.Default(dims))
			term := strings.Join(args, " ")

			var (
				node query.Node
				err  error
			)
			if len(labels) == 0 {
				node, err = b.Baseline(term)
			} else {
				predicted := make([]domain.Label, 0, len(labels))
				for _, l := range labels {
					predicted = append(predicted, domain.Label{Name: l, Confidence: 1})
				}
				node, err = b.KeywordExpansion(term, predicted)
			}
			if err != nil {
				return fmt.Errorf("build query: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), node)
		},
	}

	cmd.Flags().StringSliceVar(&labels, "label", nil, "Keyword label to expand the query with (repeatable)")
	cmd.Flags().IntVar(&dims, "dims", 300, "Embedding vector dimensions of the index")
	return cmd
}
