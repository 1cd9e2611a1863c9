package posts

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Absent reasons recorded on blog_posts_absent_total.
const (
	ReasonNotFound    = "not_found"
	ReasonInvalidSlug = "invalid_slug"
	ReasonReadError   = "read_error"
	ReasonParseError  = "parse_error"
	ReasonRenderError = "render_error"
)

const defaultMetricsNamespace = "blog"

// Metrics holds the repository collectors. A nil *Metrics records nothing.
type Metrics struct {
	loaded           prometheus.Counter
	absent           *prometheus.CounterVec
	storeUnavailable prometheus.Counter
	listDuration     prometheus.Histogram
}

// NewMetrics creates the repository collectors and registers them on reg.
// Collectors already registered under the same names are reused so several
// repositories can share one registry. A nil registerer disables metrics.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	if namespace == "" {
		namespace = defaultMetricsNamespace
	}

	loaded, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_loaded_total",
		Help:      "Posts loaded from the content store.",
	}))
	if err != nil {
		return nil, err
	}
	absent, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_absent_total",
		Help:      "Post loads that resolved to absent, by reason.",
	}, []string{"reason"}))
	if err != nil {
		return nil, err
	}
	unavailable, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_unavailable_total",
		Help:      "Content directory listings that failed.",
	}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "repository_list_duration_seconds",
		Help:      "Time spent building the full post listing.",
		Buckets:   prometheus.DefBuckets,
	}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		loaded:           loaded,
		absent:           absent,
		storeUnavailable: unavailable,
		listDuration:     duration,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return collector, nil
}

func (m *Metrics) postLoaded() {
	if m == nil {
		return
	}
	m.loaded.Inc()
}

func (m *Metrics) postAbsent(reason string) {
	if m == nil {
		return
	}
	m.absent.WithLabelValues(reason).Inc()
}

func (m *Metrics) storeFailed() {
	if m == nil {
		return
	}
	m.storeUnavailable.Inc()
}

func (m *Metrics) observeList(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.listDuration.Observe(elapsed.Seconds())
}
