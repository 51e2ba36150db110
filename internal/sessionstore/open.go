package sessionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/moonpalace/concierge/internal/config"
	"github.com/moonpalace/concierge/internal/repo"
)

// Open builds the backend selected by cfg. The returned close function
// releases the underlying connection and is never nil.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.StoreMemory:
		return NewMemoryBackend(), noop, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return RedisBackend{Client: client}, client.Close, nil

	case config.StoreMySQL, config.StoreSQLite:
		var (
			gdb *gorm.DB
			err error
		)
		if cfg.Backend == config.StoreMySQL {
			gdb, err = repo.OpenMySQL(cfg.MySQLDSN)
		} else {
			gdb, err = repo.OpenSQLite(cfg.DBPath)
		}
		if err != nil {
			return nil, noop, err
		}
		if err := repo.AutoMigrate(gdb); err != nil {
			return nil, noop, fmt.Errorf("migrate session table: %w", err)
		}
		closeFn := noop
		if sqlDB, err := gdb.DB(); err == nil {
			closeFn = sqlDB.Close
		}
		return GormBackend{DB: gdb}, closeFn, nil
	}
	return nil, noop, fmt.Errorf("unknown session store %q", cfg.Backend)
}
