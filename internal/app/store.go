package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/data/db"
	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

func loadIndexes(cfg Config, log *logger.Logger) (*docstore.IndexRegistry, error) {
	indexes := docstore.DefaultIndexes()
	if path := strings.TrimSpace(cfg.DocstoreIndexFile); path != "" {
		loaded, err := docstore.LoadIndexFile(path)
		if err != nil {
			return nil, err
		}
		log.Info("Loaded index declarations", "path", path, "count", len(loaded.Indexes()))
		indexes = loaded
	}
	return indexes.WithHintBase(cfg.DocstoreIndexHint), nil
}

// openStore builds the configured backend and wraps it with tracing.
func openStore(ctx context.Context, cfg Config, log *logger.Logger) (docstore.Store, error) {
	indexes, err := loadIndexes(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("load indexes: %w", err)
	}

	var store docstore.Store
	switch cfg.DocstoreDriver {
	case DriverMemory, "":
		log.Warn("Using in-memory document store; data is lost on restart")
		store = docstore.NewMemoryStore(docstore.WithIndexes(indexes))
	case DriverPostgres:
		pg, err := db.NewPostgresService(db.PostgresConfigFromEnv(log), log)
		if err != nil {
			return nil, err
		}
		gs := docstore.NewGormStore(pg.DB(), indexes, log)
		if err := gs.Migrate(ctx); err != nil {
			_ = gs.Close(ctx)
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		store = gs
	case DriverSQLite:
		lite, err := db.NewSQLiteService(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		gs := docstore.NewGormStore(lite.DB(), indexes, log)
		if err := gs.Migrate(ctx); err != nil {
			_ = gs.Close(ctx)
			return nil, fmt.Errorf("sqlite migrate: %w", err)
		}
		store = gs
	case DriverMongo:
		ms, err := docstore.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, indexes, log)
		if err != nil {
			return nil, err
		}
		store = ms
	default:
		return nil, fmt.Errorf("unknown DOCSTORE_DRIVER %q", cfg.DocstoreDriver)
	}
	if _, ok := docstore.AsTransactor(store); !ok {
		log.Warn("Document store has no transactions; reply counts are updated in a second write", "driver", cfg.DocstoreDriver)
	}
	return docstore.Instrument(cfg.DocstoreDriver, store, log), nil
}
