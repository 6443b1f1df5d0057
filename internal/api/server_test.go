package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revshare/internal/api/health"
	"revshare/pkg/logger"
)

func newTestServer() *Server {
	log := logger.Nop()
	return NewServer(ServerConfig{ServiceName: "revshare", RunID: "run-1"},
		health.New(log, nil, "revshare", "run-1"), log)
}

func TestServer_Routes(t *testing.T) {
	handler := newTestServer().Handler()

	tests := []struct {
		path string
		code int
		body string
	}{
		{path: "/", code: http.StatusOK, body: `"run_id":"run-1"`},
		{path: "/live", code: http.StatusOK, body: "alive"},
		{path: "/ready", code: http.StatusOK},
		{path: "/metrics", code: http.StatusOK},
		{path: "/unknown", code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Contains(t, rec.Body.String(), tt.body)
			}
		})
	}
}

func TestServer_DefaultAddr(t *testing.T) {
	assert.Equal(t, ":9090", newTestServer().httpServer.Addr)
}
