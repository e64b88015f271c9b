package app

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestKeyspace(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  redis.Cmder
		want string
	}{
		{"prefixed key", redis.NewStringCmd(ctx, "get", "cache:matrix:abc"), "cache"},
		{"lock key", redis.NewBoolCmd(ctx, "setnx", "lock:dispatch:tick", "t"), "lock"},
		{"bare key", redis.NewIntCmd(ctx, "hset", "vehicles", "v1", 1), "vehicles"},
		{"no key", redis.NewStatusCmd(ctx, "ping"), "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyspace(tt.cmd); got != tt.want {
				t.Errorf("keyspace() = %q, want %q", got, tt.want)
			}
		})
	}
}
