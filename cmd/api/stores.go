package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loanlink/backend/internal/config"
	"github.com/loanlink/backend/internal/db"
	"github.com/loanlink/backend/internal/domain/application"
	"github.com/loanlink/backend/internal/domain/loan"
	"github.com/loanlink/backend/internal/domain/user"
	"github.com/loanlink/backend/internal/http/handlers"
	"github.com/loanlink/backend/internal/repository/memory"
	mongorepo "github.com/loanlink/backend/internal/repository/mongo"
	postgresrepo "github.com/loanlink/backend/internal/repository/postgres"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type stores struct {
	users        user.Repository
	loans        loan.Repository
	applications application.Repository
	pinger       handlers.Pinger
	close        func()
}

// openStores connects the configured backend before the listener starts.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, database, err := mongorepo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := mongorepo.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info("connected to mongo", "database", cfg.MongoDatabase)
		return &stores{
			users:        mongorepo.NewUserRepository(database),
			loans:        mongorepo.NewLoanRepository(database),
			applications: mongorepo.NewApplicationRepository(database),
			pinger: handlers.PingerFunc(func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			}),
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.StorePostgres:
		pool, err := db.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("connected to postgres", "max_conns", cfg.DBMaxConns)
		return &stores{
			users:        postgresrepo.NewUserRepository(pool),
			loans:        postgresrepo.NewLoanRepository(pool),
			applications: postgresrepo.NewApplicationRepository(pool),
			pinger:       pool,
			close:        pool.Close,
		}, nil

	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		store := memory.NewStore()
		return &stores{
			users:        memory.NewUserRepository(store),
			loans:        memory.NewLoanRepository(store),
			applications: memory.NewApplicationRepository(store),
			pinger:       handlers.PingerFunc(func(context.Context) error { return nil }),
			close:        func() {},
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
