package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveRun("DONE", 2*time.Second)
	m.SetSelected(4)
	m.ObserveCompile("success", 10*time.Millisecond)
	m.ObserveCompile("error", 10*time.Millisecond)
	m.IncWrite("written")
	m.IncWrite("written")
	m.IncWrite("unchanged")
	m.IncCache("hit")
	m.IncPublish("success")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RunsTotal.WithLabelValues("DONE")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.FilesSelected))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CompilationsTotal.WithLabelValues("error")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.WritesTotal.WithLabelValues("written")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WritesTotal.WithLabelValues("unchanged")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PublishTotal.WithLabelValues("success")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CompileDuration))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRun("DONE", time.Second)
		m.SetSelected(1)
		m.ObserveCompile("success", time.Second)
		m.IncWrite("written")
		m.IncCache("miss")
		m.IncPublish("error")
	})
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)

	assert.Panics(t, func() { NewMetrics(registry) })
}

func TestWriteTextfile(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.IncWrite("written")

	path := filepath.Join(t.TempDir(), "cssprep.prom")
	require.NoError(t, WriteTextfile(path, registry))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cssprep_writes_total{result="written"} 1`)

	assert.NoError(t, WriteTextfile("", registry), "empty path disables the textfile")
	assert.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), registry))
}
