package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/databill86/dp-conceptual-search/internal/config"
	dbES "github.com/databill86/dp-conceptual-search/internal/db/elasticsearch"
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/request"
	logpkg "github.com/databill86/dp-conceptual-search/internal/logger"
	"github.com/databill86/dp-conceptual-search/internal/metrics"
	openaiML "github.com/databill86/dp-conceptual-search/internal/transport/openai"
	searchuc "github.com/databill86/dp-conceptual-search/internal/usecase/search"
)

func newSearchCmd() *cobra.Command {
	var (
		env    string
		page   int
		size   int
		sortBy string
		types  []string
		noML   bool
	)

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Run a content search against the configured index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if env == "" {
				env = config.GetEnv()
			}
			cfg, err := config.Load(env)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			metrics.RegisterMLMetrics()
			metrics.RegisterSearchMetrics()

			store, err := dbES.NewStore(dbES.Config{
				Addresses: cfg.Elasticsearch.Addresses,
				Username:  cfg.Elasticsearch.Username,
				Password:  cfg.Elasticsearch.Password,
				Index:     cfg.Elasticsearch.Index,
				Timeout:   cfg.Elasticsearch.Timeout(),
			})
			if err != nil {
				return fmt.Errorf("create document store: %w", err)
			}

			var model searchuc.Model
			if !noML && cfg.ML.APIKey != "" {
				model = openaiML.NewClient(&openaiML.Config{
					APIKey:         cfg.ML.APIKey,
					BaseURL:        cfg.ML.BaseURL,
					EmbeddingModel: cfg.ML.EmbeddingModel,
					Dimensions:     cfg.ML.Dimensions,
					KeywordModel:   cfg.ML.KeywordModel,
					Logger:         logger,
				})
			}

			svc := searchuc.New(store, model, field.Default(cfg.ML.Dimensions), searchuc.Config{
				NumLabels:       cfg.ML.NumLabels,
				Threshold:       cfg.ML.Threshold,
				MLTimeout:       cfg.ML.Timeout(),
				MaxVisibleLinks: cfg.Search.MaxVisibleLinks,
				HighlightTag:    cfg.Search.HighlightTag,
				MinTokenSize:    cfg.Search.MinTokenSize,
				BoostMode:       cfg.Search.BoostMode,
				MinScore:        cfg.Search.MinScore,
				LexicalFallback: *cfg.Search.LexicalFallback,
				RequireVector:   cfg.Search.RequireVector,
			})

			req, err := request.New(request.Params{
				Query:  strings.Join(args, " "),
				Page:   page,
				Size:   size,
				SortBy: sortBy,
				Types:  types,
			}, request.Limits{DefaultPageSize: cfg.Search.ResultsPerPage, MaxPageSize: cfg.Search.MaxRequestSize})
			if err != nil {
				return err //nolint:wrapcheck // already carries stage and field
			}

			ctx := logpkg.ContextWithLogger(cmd.Context(), logger)
			out, err := svc.Content(ctx, req)
			if err != nil {
				return err //nolint:wrapcheck // already carries stage and field
			}
			logger.Debug("search finished", zap.Int64("results", out.NumberOfResults))
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&env, "env", "", "Config environment (defaults to $ENV)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 0, "Results per page (defaults to config)")
	cmd.Flags().StringVar(&sortBy, "sort", "relevance", "Sort order: relevance, release_date, release_date_asc, first_letter or title")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Content type filter (repeatable)")
	cmd.Flags().BoolVar(&noML, "no-ml", false, "Skip keyword prediction and embedding")
	return cmd
}
