package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"revshare/internal/adapters/clickhouse"
)

// ClickHouseTestHelper manages a connection and row cleanup for integration tests.
type ClickHouseTestHelper struct {
	client *clickhouse.Client
}

// NewTestClickHouse connects with settings from the environment.
// Skips when ClickHouse is not configured.
func NewTestClickHouse(t *testing.T) *ClickHouseTestHelper {
	t.Helper()

	client, err := clickhouse.NewClient(context.Background(), ClickHouseConfigFromEnv(t))
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })
	return &ClickHouseTestHelper{client: client}
}

// Conn returns the underlying connection
func (h *ClickHouseTestHelper) Conn() driver.Conn {
	return h.client.Conn()
}

// RegisterTableCleanup deletes rows matching condition once the test completes.
// Shared tables are cleaned by run rather than dropped.
func (h *ClickHouseTestHelper) RegisterTableCleanup(t *testing.T, table, condition string, args ...interface{}) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = h.client.Conn().Exec(ctx, "DELETE FROM "+table+" WHERE "+condition, args...)
	})
}
