package metrics

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/netverify/aptrie/pkg/trie"
)

const (
	PathLabel    = "path"
	MemoPath     = "memo"
	DescentPath  = "descent"
	OutcomeLabel = "outcome"
	Succeeded    = "succeeded"
	Failed       = "failed"
)

type MetricsProvider interface {
	HandleMetrics() error
}

type metricsTrie struct {
	trie *trie.Trie
}

// NewMetricsTrie returns a provider that publishes the shape of t.
func NewMetricsTrie(t *trie.Trie) MetricsProvider {
	return &metricsTrie{t}
}

func (m *metricsTrie) HandleMetrics() error {
	nodeCount.Set(float64(m.trie.Len()))
	atomicPredicateCount.Set(float64(len(m.trie.AtomicPredicateMap())))
	trieDepth.Set(float64(m.trie.Depth()))
	return nil
}

type MetricsNil struct{}

func NewMetricsNil() MetricsProvider {
	return &MetricsNil{}
}

func (*MetricsNil) HandleMetrics() error {
	return nil
}

// To add new metrics:
// 1. Register new metrics in Register() below.
// 2. Add appropriate metric updates in HandleMetrics or in Recorder.
var (
	nodeCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aptrie_node_count",
			Help: "Number of nodes in the trie, including the root",
		},
	)

	atomicPredicateCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aptrie_atomic_predicate_count",
			Help: "Number of non-empty atomic predicates",
		},
	)

	trieDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aptrie_depth",
			Help: "Number of nodes on the longest root-to-leaf path",
		},
	)

	insertCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aptrie_inserts_total",
			Help: "Monotonic count of region insertions",
		},
	)

	nodesCreatedCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aptrie_nodes_created_total",
			Help: "Monotonic count of nodes created by insertions",
		},
	)

	insertDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aptrie_insert_duration_seconds",
			Help:    "The duration of a single region insertion",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	queryCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aptrie_queries_total",
			Help: "Monotonic count of atomic predicate queries, by resolution path",
		},
		[]string{PathLabel},
	)

	buildSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "aptrie_build_duration_seconds",
			Help:       "The duration of a ruleset load and trie build",
			Objectives: map[float64]float64{0.95: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{OutcomeLabel},
	)

	reloadCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aptrie_reloads_total",
			Help: "Monotonic count of ruleset reloads triggered by file changes, by outcome",
		},
		[]string{OutcomeLabel},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		nodeCount,
		atomicPredicateCount,
		trieDepth,
		insertCount,
		nodesCreatedCount,
		insertDuration,
		queryCount,
		buildSummary,
		reloadCount,
	} {
		if err := reg.Register(c); err != nil {
			return errors.Wrap(err, "registering trie metrics")
		}
	}
	return nil
}

// Recorder feeds trie events into the package collectors.
type Recorder struct{}

var _ trie.Recorder = Recorder{}

func (Recorder) ObserveInsert(created int, d time.Duration) {
	insertCount.Inc()
	nodesCreatedCount.Add(float64(created))
	insertDuration.Observe(d.Seconds())
}

func (Recorder) ObserveQuery(memo bool) {
	path := DescentPath
	if memo {
		path = MemoPath
	}
	queryCount.WithLabelValues(path).Inc()
}

// EmitBuild records the outcome and duration of a build.
func EmitBuild(d time.Duration, err error) {
	outcome := Succeeded
	if err != nil {
		outcome = Failed
	}
	buildSummary.WithLabelValues(outcome).Observe(d.Seconds())
}

// EmitReload counts a reload of a watched ruleset.
func EmitReload(err error) {
	outcome := Succeeded
	if err != nil {
		outcome = Failed
	}
	reloadCount.WithLabelValues(outcome).Inc()
}

// WriteText writes every metric gathered from g in the Prometheus text
// exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrapf(err, "writing metric family %s", mf.GetName())
		}
	}
	return nil
}
