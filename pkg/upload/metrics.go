package upload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/dropzone/pkg/dropzone"
)

const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultError    = "error"
)

// Metrics holds the Prometheus collectors for the upload handler.
// A nil *Metrics records nothing.
type Metrics struct {
	uploads    *prometheus.CounterVec
	bytes      prometheus.Histogram
	rejections *prometheus.CounterVec
}

// NewMetrics registers the upload collectors with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dropzone",
			Name:      "uploads_total",
			Help:      "Total number of upload requests by result",
		}, []string{"result"}),

		bytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dropzone",
			Name:      "upload_bytes",
			Help:      "Size of stored upload files in bytes",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 10),
		}),

		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dropzone",
			Name:      "rejections_total",
			Help:      "Total number of rejected files by reason",
		}, []string{"code"}),
	}
}

func (m *Metrics) observeResult(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *Metrics) observeStored(size int64) {
	if m == nil {
		return
	}
	m.bytes.Observe(float64(size))
}

func (m *Metrics) observeRejections(rejected []dropzone.Rejection) {
	if m == nil {
		return
	}
	for _, r := range rejected {
		for _, e := range r.Errors {
			m.rejections.WithLabelValues(string(e.Code)).Inc()
		}
	}
}
