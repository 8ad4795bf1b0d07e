package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes
const (
	OutcomeSuccess            = "success"
	OutcomeValidationFailed   = "validation_failed"
	OutcomeVerificationFailed = "verification_failed"
	OutcomeStoreError         = "store_error"
)

// ContactMetrics exposes counters/histograms for the contact pipeline.
type ContactMetrics struct {
	submissionsTotal *prometheus.CounterVec
	captchaLatency   *prometheus.HistogramVec
	storeLatency     *prometheus.HistogramVec
	rejectedFields   prometheus.Counter
}

func NewContactMetrics(reg prometheus.Registerer) *ContactMetrics {
	m := &ContactMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Contact form submissions by outcome",
		}, []string{"outcome"}),
		captchaLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portfolio",
			Subsystem: "contact",
			Name:      "captcha_latency_seconds",
			Help:      "Latency of Turnstile siteverify calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portfolio",
			Subsystem: "contact",
			Name:      "store_latency_seconds",
			Help:      "Latency of submission inserts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		rejectedFields: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "contact",
			Name:      "rejected_fields_total",
			Help:      "Submitted fields dropped by the allow-list",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.captchaLatency, m.storeLatency, m.rejectedFields)
	return m
}

func (m *ContactMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *ContactMetrics) ObserveCaptcha(result string, seconds float64) {
	if m == nil {
		return
	}
	m.captchaLatency.WithLabelValues(result).Observe(seconds)
}

func (m *ContactMetrics) ObserveStore(result string, seconds float64) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(result).Observe(seconds)
}

func (m *ContactMetrics) ObserveRejectedFields(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rejectedFields.Add(float64(n))
}
