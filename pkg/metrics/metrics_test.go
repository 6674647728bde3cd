package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The registry is process global, so everything that needs it enabled runs
// inside this one test.
func TestMetrics(t *testing.T) {
	InitRegistry()
	require.True(t, IsEnabled())

	t.Run("Content", func(t *testing.T) {
		m := NewContentMetrics("memory")
		require.NotNil(t, m)

		m.ObserveOperation("write", time.Millisecond, nil)
		m.ObserveOperation("write", time.Millisecond, errors.New("boom"))
		m.RecordBytes("write", 13)
		m.RecordBytes("read", 0)

		cols := getContentCollectors()
		assert.Equal(t, 1.0, testutil.ToFloat64(cols.operationsTotal.WithLabelValues("memory", "write", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(cols.operationsTotal.WithLabelValues("memory", "write", "error")))
		assert.Equal(t, 13.0, testutil.ToFloat64(cols.bytesTransferred.WithLabelValues("memory", "write")))

		// A second backend shares the collectors instead of re-registering.
		other := NewContentMetrics("badger")
		other.ObserveOperation("read", time.Millisecond, nil)
		assert.Equal(t, 1.0, testutil.ToFloat64(cols.operationsTotal.WithLabelValues("badger", "read", "success")))
	})

	t.Run("Filesystem", func(t *testing.T) {
		m := NewFilesystemMetrics()
		require.NotNil(t, m)
		assert.Same(t, m, NewFilesystemMetrics())

		m.ObserveMutation("create_file", time.Microsecond, nil)
		m.SetNodeCount(7)
		m.ObservePersist("save", 512, time.Millisecond, nil)

		fm := m.(*filesystemMetrics)
		assert.Equal(t, 1.0, testutil.ToFloat64(fm.mutationsTotal.WithLabelValues("create_file", "success")))
		assert.Equal(t, 7.0, testutil.ToFloat64(fm.nodes))
		assert.Equal(t, 512.0, testutil.ToFloat64(fm.snapshotBytes.WithLabelValues("save")))
	})

	t.Run("Endpoint", func(t *testing.T) {
		srv := httptest.NewServer(newMux(nil))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "workspacefs_content_operations_total")
		assert.Contains(t, string(body), "workspacefs_fs_nodes")
	})
}

func TestServer_Probes(t *testing.T) {
	var notReady atomic.Bool
	notReady.Store(true)
	srv := httptest.NewServer(newMux(func(context.Context) error {
		if notReady.Load() {
			return errors.New("loading")
		}
		return nil
	}))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, _ := get("/healthz")
	assert.Equal(t, http.StatusOK, code)

	code, body := get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "loading")

	notReady.Store(false)
	code, _ = get("/readyz")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get("/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNewServer_DefaultPort(t *testing.T) {
	assert.Equal(t, DefaultPort, NewServer(ServerConfig{}).Port())
	assert.Equal(t, 9191, NewServer(ServerConfig{Port: 9191}).Port())
	assert.Nil(t, NewServer(ServerConfig{}).Addr())
}
