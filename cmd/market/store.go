package main

import (
	"context"
	"fmt"
	"time"

	"github.com/vikenamera/CraftVersee/internal/kv"
	"github.com/vikenamera/CraftVersee/internal/platform/config"
)

const dialTimeout = 10 * time.Second

// openStore builds the configured key-value backend and returns its close function.
func openStore(ctx context.Context, cfg config.StoreConfig) (kv.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", config.BackendMemory:
		return kv.NewMemoryStore(), noop, nil
	case config.BackendFile:
		store, err := kv.NewFileStore(cfg.FileDir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case config.BackendRedis:
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		client, err := kv.DialRedis(dialCtx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := kv.NewRedisStore(client, kv.WithRedisKeyPrefix(cfg.RedisPrefix), kv.WithRedisTTL(cfg.RedisTTL))
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	case config.BackendFirestore:
		client, err := kv.DialFirestore(ctx, cfg.FirestoreProjectID, cfg.FirestoreEmulator)
		if err != nil {
			return nil, nil, err
		}
		store, err := kv.NewFirestoreStore(client, cfg.FirestoreCollection)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
