package main

import (
	"context"
	"fmt"
	"time"

	"github.com/loanlink/backend/internal/config"
	"github.com/loanlink/backend/internal/db"
	"github.com/loanlink/backend/internal/observability"
	mongorepo "github.com/loanlink/backend/internal/repository/mongo"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations for the configured store",
		Long: `Apply pending SQL migrations when STORE_DRIVER=postgres, or create
the collection indexes when STORE_DRIVER=mongo.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPostgresPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		applied, err := db.Migrate(ctx, pool, logger)
		if err != nil {
			return err
		}
		logger.Info("migrations complete", "applied", len(applied))
	case config.StoreMongo:
		client, database, err := mongorepo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := mongorepo.EnsureIndexes(ctx, database); err != nil {
			return err
		}
		logger.Info("mongo indexes ensured", "database", cfg.MongoDatabase)
	default:
		logger.Info("nothing to migrate", "store", cfg.StoreDriver)
	}
	return nil
}
