package testsupport

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	redisclient "revshare/internal/adapters/redis"
)

// NewTestRedis connects with settings from the environment and flushes the
// database before and after the test. Skips when Redis is not configured.
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client, err := redisclient.NewClient(context.Background(), RedisConfigFromEnv(t))
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	rdb := client.Client()
	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return rdb
}
