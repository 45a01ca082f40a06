package observability

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_MetricsAndHealth(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	base := "http://" + s.Addr()

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotContains(t, string(raw), "last_run")

	s.ReportRun(12, 7, nil)
	resp, err = http.Get(base + "/health")
	require.NoError(t, err)
	var health Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", health.Status)
	assert.Equal(t, 12, health.Definitions)
	assert.Equal(t, 7, health.Edges)
	require.NotNil(t, health.LastRun)
	assert.False(t, health.LastRun.IsZero())

	FilesTotal.WithLabelValues("parsed").Inc()
	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "pymap_files_total")
}

func TestServer_ReportRunFailure(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	s.ReportRun(0, 0, errors.New("boom"))
	assert.Equal(t, "degraded", s.health.Status)
	assert.Equal(t, "boom", s.health.LastError)
}
