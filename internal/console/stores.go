package console

import (
	"context"

	"github.com/graphflow/graphflow/config"
	"github.com/graphflow/graphflow/log"
	"github.com/graphflow/graphflow/store"
	"github.com/graphflow/graphflow/store/memory"
	"github.com/graphflow/graphflow/store/postgres"
	"github.com/graphflow/graphflow/store/redis"
	"github.com/graphflow/graphflow/store/sqlite"
)

// Stores opens the chunk store and cache selected by cfg: Redis, then
// Postgres, then SQLite, falling back to memory. The returned function
// releases them.
func Stores(ctx context.Context, cfg *config.Config, logger log.Logger) (store.ChunkStore, store.Cache, func()) {
	switch {
	case cfg.RedisAddr != "":
		logger.Info("using redis at %s", cfg.RedisAddr)
		s := redis.New(redis.Options{Addr: cfg.RedisAddr})
		return s, s.Cache(), func() { _ = s.Close() }

	case cfg.PostgresDSN != "":
		logger.Info("using postgres chunk store")
		s, err := postgres.NewChunkStore(ctx, postgres.Options{ConnString: cfg.PostgresDSN})
		if err != nil {
			Fatal(err)
		}
		return s, memory.NewCache(), s.Close

	case cfg.SQLitePath != "":
		logger.Info("using sqlite chunk store at %s", cfg.SQLitePath)
		s, err := sqlite.NewChunkStore(sqlite.Options{Path: cfg.SQLitePath})
		if err != nil {
			Fatal(err)
		}
		return s, memory.NewCache(), func() { _ = s.Close() }
	}
	return memory.NewChunkStore(), memory.NewCache(), func() {}
}
