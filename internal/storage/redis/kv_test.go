package redis

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"contable/internal/core"
	"contable/internal/storage"
)

func getRedisClient(t *testing.T) *goredis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestKVGetPut(t *testing.T) {
	client := getRedisClient(t)
	kv := New(client)
	defer kv.Close()
	ctx := context.Background()

	key := "contable_test:" + t.Name()
	client.Del(ctx, key)
	defer client.Del(ctx, key)

	if _, err := kv.Get(ctx, key); err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := kv.Put(ctx, key, []byte(`[]`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := kv.Get(ctx, key)
	if err != nil || string(got) != `[]` {
		t.Fatalf("expected [], got %q (err=%v)", got, err)
	}
	if ttl := client.TTL(ctx, key).Val(); ttl >= 0 {
		t.Fatalf("collections must not expire, ttl=%v", ttl)
	}
}

func TestRepositoryOverRedis(t *testing.T) {
	client := getRedisClient(t)
	kv := New(client)
	defer kv.Close()
	ctx := context.Background()

	prefix := "contable_test:" + t.Name() + ":"
	defer client.Del(ctx, prefix+storage.KeyInventory)

	repo := storage.NewRepository(kv, prefix, nil)
	items := []core.InventoryItem{{ID: "a", Name: "Shirt", Stock: 3}}
	if err := repo.SaveInventory(ctx, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := repo.LoadInventory(ctx)
	if len(got) != 1 || got[0].Name != "Shirt" || got[0].Stock != 3 {
		t.Fatalf("unexpected inventory %+v", got)
	}
}
