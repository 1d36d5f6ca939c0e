package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Lifecycle(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.LaunchSucceeded()
	c.LaunchSucceeded()
	c.LaunchFailed()
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Launches.WithLabelValues(ResultStarted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Launches.WithLabelValues(ResultFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Active))

	c.Exited(3, 10*time.Millisecond)
	c.Abandoned()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Exits.WithLabelValues("3")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Active))
	assert.Equal(t, 1, testutil.CollectAndCount(c.Duration))
}

func TestCollector_Streams(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.StreamBytes("stdout", 5)
	c.StreamBytes("stdout", 7)
	c.StreamLine("stderr")
	c.IOError("stdin")

	assert.Equal(t, 12.0, testutil.ToFloat64(c.StreamBytesTotal.WithLabelValues("stdout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StreamLinesTotal.WithLabelValues("stderr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.IOErrors.WithLabelValues("stdin")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.LaunchSucceeded()
		c.LaunchFailed()
		c.Exited(0, time.Second)
		c.Abandoned()
		c.StreamBytes("stdout", 1)
		c.StreamLine("stdout")
		c.IOError("wait")
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
