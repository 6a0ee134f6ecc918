package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Transition labels for InspectionTransitions.
const (
	TransitionCreate  = "create"
	TransitionReopen  = "reopen"
	TransitionResume  = "resume"
	TransitionFinish  = "finish"
	TransitionRelease = "release"
	TransitionDelete  = "delete"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	InspectionTransitions   *prometheus.CounterVec
	ReportsBuilt            *prometheus.CounterVec
	ReportPages             prometheus.Histogram
	ReportAssetsUnavailable prometheus.Counter
	PostReleaseEdits        prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		InspectionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siteinspect_inspection_transitions_total",
			Help: "Inspection lifecycle transitions, by transition.",
		}, []string{"transition"}),
		ReportsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siteinspect_reports_built_total",
			Help: "Reports rendered, by report kind.",
		}, []string{"kind"}),
		ReportPages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "siteinspect_report_pages",
			Help:    "Page count of rendered reports.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		ReportAssetsUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siteinspect_report_assets_unavailable_total",
			Help: "Photos replaced by a placeholder during report assembly.",
		}),
		PostReleaseEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siteinspect_post_release_edits_total",
			Help: "Notes or photo edits applied to already released inspections.",
		}),
	}
	reg.MustRegister(
		m.InspectionTransitions,
		m.ReportsBuilt,
		m.ReportPages,
		m.ReportAssetsUnavailable,
		m.PostReleaseEdits,
	)
	return m
}

func (m *Metrics) Transition(name string) {
	if m == nil {
		return
	}
	m.InspectionTransitions.WithLabelValues(name).Inc()
}

func (m *Metrics) ReportBuilt(kind string, pages int) {
	if m == nil {
		return
	}
	m.ReportsBuilt.WithLabelValues(kind).Inc()
	m.ReportPages.Observe(float64(pages))
}

func (m *Metrics) AssetUnavailable() {
	if m == nil {
		return
	}
	m.ReportAssetsUnavailable.Inc()
}

func (m *Metrics) PostReleaseEdit() {
	if m == nil {
		return
	}
	m.PostReleaseEdits.Inc()
}
