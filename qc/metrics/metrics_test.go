package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewQCMetricsSingleton(t *testing.T) {
	m1 := NewQCMetrics()
	m2 := NewQCMetrics()
	require.Same(t, m1, m2)
}

func TestQCMetricsRecord(t *testing.T) {
	m := NewQCMetrics()

	before := testutil.ToFloat64(m.DisputeDecisions.WithLabelValues("accept"))
	m.DisputeDecisions.WithLabelValues("accept").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(m.DisputeDecisions.WithLabelValues("accept")))

	before = testutil.ToFloat64(m.BytesHashed)
	m.BytesHashed.Add(42)
	require.Equal(t, before+42, testutil.ToFloat64(m.BytesHashed))
}
