package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Transition(TransitionFinish)
	m.Transition(TransitionFinish)
	m.ReportBuilt("inspection", 3)
	m.AssetUnavailable()
	m.PostReleaseEdit()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InspectionTransitions.WithLabelValues(TransitionFinish)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsBuilt.WithLabelValues("inspection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportAssetsUnavailable))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PostReleaseEdits))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "siteinspect_report_pages")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition(TransitionCreate)
		m.ReportBuilt("site", 1)
		m.AssetUnavailable()
		m.PostReleaseEdit()
	})
}
