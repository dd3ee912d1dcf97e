// Package redis implements storage.KV on Redis strings.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"contable/internal/storage"
)

// KV stores each collection as a plain string value without expiry.
type KV struct {
	client *goredis.Client
}

// New wraps an existing client. The client is closed by KV.Close.
func New(client *goredis.Client) *KV {
	return &KV{client: client}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*KV, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client), nil
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := k.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (k *KV) Put(ctx context.Context, key string, value []byte) error {
	if err := k.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (k *KV) Ping(ctx context.Context) error {
	return k.client.Ping(ctx).Err()
}

func (k *KV) Close() error {
	return k.client.Close()
}
