package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dan9191/hutangku/internal/config"
	"github.com/sirupsen/logrus"
)

// Open connects to the store selected by cfg.StoreDriver and prepares its
// schema or indexes
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store, data will not survive a restart")
		return NewMemoryRepository(), nil

	case config.DriverMongo:
		repo, err := NewMongoRepository(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		logger.Infof("Connected to MongoDB database %s", cfg.MongoDatabase)
		return repo, nil

	default:
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		repo := NewRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Connected to PostgreSQL")
		return repo, nil
	}
}
