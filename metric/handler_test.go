package metric

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Metrics(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordError("stormfront", "publish")

	srv := httptest.NewServer(NewServer(0, "", registry, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `outlander_errors_total{service="stormfront",type="publish"} 1`)
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name     string
		health   HealthFunc
		wantCode int
		wantBody string
	}{
		{"no callback", nil, http.StatusOK, "OK"},
		{
			name:     "healthy",
			health:   func() (bool, any) { return true, map[string]string{"status": "healthy"} },
			wantCode: http.StatusOK,
			wantBody: `{"status":"healthy"}`,
		},
		{
			name:     "unhealthy",
			health:   func() (bool, any) { return false, map[string]string{"status": "unhealthy"} },
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"status":"unhealthy"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(NewServer(0, "", NewMetricsRegistry(), tt.health).Handler())
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if json.Valid([]byte(tt.wantBody)) {
				assert.JSONEq(t, tt.wantBody, string(body))
			} else {
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestServer_Defaults(t *testing.T) {
	s := NewServer(0, "", NewMetricsRegistry(), nil)
	assert.Equal(t, "http://localhost:9090/metrics", s.Address())
	assert.NoError(t, s.Stop(), "stop before start is a no-op")
}

func TestServer_StartWithoutRegistry(t *testing.T) {
	err := NewServer(19091, "", nil, nil).Start(context.Background())
	assert.Error(t, err)
}

func TestServer_StopsWithContext(t *testing.T) {
	s := NewServer(19092, "", NewMetricsRegistry(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://localhost:19092/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestServer_StartWithCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, NewServer(19093, "", NewMetricsRegistry(), nil).Start(ctx))
}
