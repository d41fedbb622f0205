package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/buildforge/dircc/artifact"
	"github.com/buildforge/dircc/worker"
)

const metricsNamespace = "dircc"

var (
	// 10ms -> 60s, compilers are slow
	compileTimeBuckets = []float64{
		0.01, 0.025, 0.05, 0.1, 0.2, 0.4, 0.6, 0.8, 1.0,
		1.5, 2, 3, 5, 8, 10, 15, 30, 60,
	}

	// 4k (1<<12) -> 1g (1<<30)
	artifactSizeBucket = prometheus.ExponentialBuckets(1<<12, 2, 19)

	metricsSummaryQuantile = map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}

	compileErrorCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "error",
		Help:      "Number of compile requests that returned an internal error",
	})

	compileTimeHist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "compile_time_seconds",
		Help:      "Histogram for the compiler invocation time",
		Buckets:   compileTimeBuckets,
	}, []string{"status", "toolchain"})

	compileTimeSummary = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  metricsNamespace,
		Name:       "compile_time",
		Help:       "Summary for the compiler invocation time",
		Objectives: metricsSummaryQuantile,
	}, []string{"status", "toolchain"})

	artifactSizeHist = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "artifact_size_bytes",
		Help:      "Histogram for the artifact size in the store",
		Buckets:   artifactSizeBucket,
	})

	artifactTotalCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "artifact_current_total",
		Help:      "Total number of current artifacts in the store",
	})
)

func init() {
	prometheus.MustRegister(compileErrorCount)
	prometheus.MustRegister(compileTimeHist, compileTimeSummary)
	prometheus.MustRegister(artifactSizeHist, artifactTotalCount)
}

func compileObserve(res worker.Response) {
	status := res.Result.Status.String()
	tc := res.Result.Toolchain
	d := res.Result.Time.Seconds()

	compileTimeHist.WithLabelValues(status, tc).Observe(d)
	compileTimeSummary.WithLabelValues(status, tc).Observe(d)
	if res.Result.Error != "" && res.Result.ExitStatus < 0 {
		compileErrorCount.Inc()
	}
}

var _ artifact.Store = &metricsStore{}

type metricsStore struct {
	artifact.Store
}

func newMetricsStore(store artifact.Store) artifact.Store {
	return &metricsStore{Store: store}
}

func (m *metricsStore) Add(name, path string) (string, error) {
	id, err := m.Store.Add(name, path)
	if err == nil {
		if fi, err := os.Stat(path); err == nil {
			artifactSizeHist.Observe(float64(fi.Size()))
		}
		artifactTotalCount.Set(float64(len(m.Store.List())))
	}
	return id, err
}

func (m *metricsStore) Remove(id string) bool {
	ok := m.Store.Remove(id)
	artifactTotalCount.Set(float64(len(m.Store.List())))
	return ok
}
