package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vikenamera/CraftVersee/internal/kv"
	"github.com/vikenamera/CraftVersee/internal/platform/config"
)

func TestOpenStoreSelectsBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	store, closeFn, err := openStore(ctx, config.StoreConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	require.IsType(t, &kv.MemoryStore{}, store)
	require.NoError(t, closeFn())

	dir := filepath.Join(t.TempDir(), "kv")
	store, closeFn, err = openStore(ctx, config.StoreConfig{Backend: config.BackendFile, FileDir: dir})
	require.NoError(t, err)
	require.IsType(t, &kv.FileStore{}, store)
	require.NoError(t, store.Set(ctx, "shopper/x/cart", "[]"))
	require.NoError(t, closeFn())

	_, _, err = openStore(ctx, config.StoreConfig{Backend: "etcd"})
	require.Error(t, err)

	_, _, err = openStore(ctx, config.StoreConfig{Backend: config.BackendRedis, RedisURL: "not a url"})
	require.Error(t, err)
}
