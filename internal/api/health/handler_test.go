package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revshare/pkg/logger"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Health(ctx context.Context) error { return f(ctx) }

var (
	up   = checkerFunc(func(context.Context) error { return nil })
	down = checkerFunc(func(context.Context) error { return fmt.Errorf("connection refused") })
)

func serve(t *testing.T, h http.HandlerFunc) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		checkers   map[string]Checker
		wantCode   int
		wantStatus string
	}{
		{"no sinks", nil, http.StatusOK, "healthy"},
		{"all up", map[string]Checker{"postgres": up, "redis": up}, http.StatusOK, "healthy"},
		{"one down", map[string]Checker{"postgres": up, "redis": down}, http.StatusOK, "degraded"},
		{"all down", map[string]Checker{"clickhouse": down}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(logger.Nop(), tt.checkers, "revshare", "run-1")

			code, status := serve(t, h.HandleHealth)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "run-1", status.RunID)
			assert.Len(t, status.Checks, len(tt.checkers))
		})
	}
}

func TestHandleReadiness(t *testing.T) {
	h := New(logger.Nop(), map[string]Checker{"postgres": up, "redis": down}, "revshare", "run-1")

	code, status := serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "connection refused", status.Checks["redis"].Error)
	assert.Equal(t, "healthy", status.Checks["postgres"].Status)
}

func TestHandleLiveness(t *testing.T) {
	h := New(logger.Nop(), nil, "revshare", "run-1")
	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
