package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	ai "github.com/cs-au-dk/semdiff/analysis/absint"
	"github.com/cs-au-dk/semdiff/analysis/verify"
)

const namespace = "semdiff"

// runMetrics aggregates the metrics of every file pair analyzed by a run.
// Each run owns its registry so batch runs and tests do not share counters.
type runMetrics struct {
	reg *prometheus.Registry

	pairs         *prometheus.CounterVec
	instructions  *prometheus.CounterVec
	frames        *prometheus.CounterVec
	summaries     *prometheus.CounterVec
	swept         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	candidates    prometheus.Counter
	outcomes      *prometheus.CounterVec
	solverCalls   prometheus.Counter
	solverLatency prometheus.Histogram
	cache         *prometheus.CounterVec
}

func newRunMetrics() *runMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &runMetrics{
		reg: reg,
		pairs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_total",
			Help:      "File pairs analyzed, by outcome of the destination analysis.",
		}, []string{"outcome"}),
		instructions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "absint",
			Name:      "instructions_total",
			Help:      "Instructions executed by the abstract interpreter.",
		}, []string{"version"}),
		frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "absint",
			Name:      "frames_total",
			Help:      "Call frames pushed by the abstract interpreter.",
		}, []string{"version"}),
		summaries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "absint",
			Name:      "summaries_total",
			Help:      "Calls answered by a function summary.",
		}, []string{"version"}),
		swept: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "absint",
			Name:      "swept_functions_total",
			Help:      "Functions analyzed because no call reached them.",
		}, []string{"version"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "absint",
			Name:      "duration_seconds",
			Help:      "Duration of an abstract interpretation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"version"}),
		candidates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "candidates_total",
			Help:      "Changed definitions given to the verifier.",
		}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "outcomes_total",
			Help:      "Verification outcomes.",
		}, []string{"outcome"}),
		solverCalls: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "solver_calls_total",
			Help:      "Queries answered by the verifier.",
		}),
		solverLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "latency_seconds",
			Help:      "Time spent in the verifier per file pair.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "cache_lookups_total",
			Help:      "Verdict cache lookups.",
		}, []string{"result"}),
	}
}

// observeAnalysis records the metrics of the analysis of one version.
func (m *runMetrics) observeAnalysis(version string, am *ai.Metrics) {
	if m == nil || !am.Enabled() {
		return
	}
	m.instructions.WithLabelValues(version).Add(float64(am.Instructions()))
	m.frames.WithLabelValues(version).Add(float64(am.FramesPushed()))
	m.summaries.WithLabelValues(version).Add(float64(am.SummariesUsed()))
	m.swept.WithLabelValues(version).Add(float64(am.Swept()))
	m.duration.WithLabelValues(version).Observe(am.Duration().Seconds())
	if version == "dst" {
		outcome := am.Outcome
		if outcome == ai.OUTCOME_UNSTATED {
			outcome = "unknown"
		}
		m.pairs.WithLabelValues(outcome).Inc()
	}
}

// observeVerification records the statistics of a verification task.
func (m *runMetrics) observeVerification(st verify.Stats) {
	if m == nil {
		return
	}
	m.candidates.Add(float64(st.Candidates))
	m.outcomes.WithLabelValues(verify.Verified.String()).Add(float64(st.Verified))
	m.outcomes.WithLabelValues(verify.Refuted.String()).Add(float64(st.Refuted))
	m.outcomes.WithLabelValues(verify.Failed.String()).Add(float64(st.Failed))
	m.solverCalls.Add(float64(st.SolverCalls))
	if st.SolverCalls > 0 {
		m.solverLatency.Observe(st.Latency.Seconds())
	}
}

func (m *runMetrics) observeCache(c *verify.CachedVerifier) {
	if m == nil || c == nil {
		return
	}
	m.cache.WithLabelValues("hit").Add(float64(c.Hits))
	m.cache.WithLabelValues("miss").Add(float64(c.Misses))
}

// report prints every counter and histogram of the run.
func (m *runMetrics) report(w io.Writer) error {
	families, err := m.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	lines := []string{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := []string{}
			for _, l := range metric.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case metric.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %v", name, metric.GetCounter().GetValue()))
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%.3fs", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(w, color.New(color.Bold).Sprint("================ Metrics ====================="))
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}
