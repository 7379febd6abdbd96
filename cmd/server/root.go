package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"propsearch/internal/config"
	"propsearch/internal/logging"
	"propsearch/internal/repository"
	"propsearch/internal/service"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Property search suggestion service",
		Long: `Parses free-text property queries such as "2bhk villa goa under 2cr"
into structured filters and serves ranked autocomplete suggestions and
property listings over HTTP.

Running without a subcommand starts the HTTP server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("server version {{.Version}} (built %s, commit %s)\n", BuildTime, GitCommit))

	cmd.AddCommand(newServeCmd(), newSuggestCmd(), newParseCmd())
	return cmd
}

// app bundles the wired services shared by every subcommand.
type app struct {
	cfg      *config.Config
	repo     *repository.PostgresRepository
	registry *service.ExtractorRegistry
	cache    *service.MemoryCache
	suggest  *service.SuggestService
	search   *service.SearchService
}

// newApp loads configuration, connects to the database and wires services.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Setup(cfg.Logging)

	rules, err := service.ParseRules(cfg.Parser.RuleOrder)
	if err != nil {
		return nil, err
	}

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to PostgreSQL")

	registry := service.NewExtractorRegistry(repo, rules)
	if err := registry.Refresh(ctx); err != nil {
		slog.Warn("starting with an empty location vocabulary", slog.Any("error", err))
	}

	cache := service.NewMemoryCache(service.MemoryCacheOptions{
		TTL:         cfg.Cache.TTL,
		SoftCeiling: cfg.Cache.SoftCeiling,
		Capacity:    cfg.Cache.Capacity,
	})

	suggest := service.NewSuggestService(
		registry,
		service.NewCandidateGenerator(repo),
		service.NewRanker(),
		cache,
		service.SuggestOptions{
			DefaultLimit:   cfg.Suggest.DefaultLimit,
			MaxLimit:       cfg.Suggest.MaxLimit,
			MaxQueryLength: cfg.Suggest.MaxQueryLength,
		},
	)
	search := service.NewSearchService(repo, registry, service.ListingOptions{
		DefaultPageSize: cfg.Listing.DefaultPageSize,
		MaxPageSize:     cfg.Listing.MaxPageSize,
		MaxQueryLength:  cfg.Suggest.MaxQueryLength,
	})

	return &app{
		cfg:      cfg,
		repo:     repo,
		registry: registry,
		cache:    cache,
		suggest:  suggest,
		search:   search,
	}, nil
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		slog.Warn("failed to close database", slog.Any("error", err))
	}
}
