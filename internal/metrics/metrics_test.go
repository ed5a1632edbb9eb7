package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	assert.Same(t, reg, pr.Registry())

	pr.SetDeclared(3)
	pr.SetOnDisk(1)
	pr.IncRestored("svc2")
	pr.IncRestored("svc3")
	pr.ObserveRun("restored", 20*time.Millisecond)

	assert.Equal(t, float64(3), testutil.ToFloat64(pr.declared))
	assert.Equal(t, float64(1), testutil.ToFloat64(pr.onDisk))
	assert.Equal(t, float64(1), testutil.ToFloat64(pr.restored.WithLabelValues("svc2")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pr.runs.WithLabelValues("restored")))
	assert.Equal(t, 2, testutil.CollectAndCount(pr.restored))
}

func TestNilRegistry(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	require.NotNil(t, pr.Registry())

	mfs, err := pr.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.SetDeclared(2)
	pr.ObserveRun("clean", time.Millisecond)

	path := filepath.Join(t.TempDir(), "services.prom")
	require.NoError(t, pr.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.True(t, strings.Contains(text, "services_declared 2"), text)
	assert.Contains(t, text, `services_runs_total{outcome="clean"} 1`)
}
