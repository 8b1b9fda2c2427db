package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/cs-au-dk/semdiff/analysis/verify"
	"github.com/cs-au-dk/semdiff/config"
	"github.com/cs-au-dk/semdiff/facts"
)

func TestVerificationMetrics(t *testing.T) {
	m := newRunMetrics()
	m.observeVerification(verify.Stats{
		Candidates:  3,
		Verified:    1,
		Refuted:     1,
		Failed:      1,
		SolverCalls: 4,
		Latency:     time.Second,
	})
	m.observeVerification(verify.Stats{Candidates: 1, Failed: 1})

	require.Equal(t, 4.0, testutil.ToFloat64(m.candidates))
	require.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("verified")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.outcomes.WithLabelValues("failed")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.solverCalls))
	// Pairs without solver calls are not observed.
	require.Equal(t, 1, testutil.CollectAndCount(m.solverLatency))

	var buf bytes.Buffer
	require.NoError(t, m.report(&buf))
	require.Contains(t, buf.String(), "semdiff_verify_candidates_total 4")
	require.Contains(t, buf.String(), "semdiff_verify_outcomes_total{outcome=refuted} 1")
	require.Contains(t, buf.String(), "semdiff_verify_latency_seconds count=1 sum=1.000s")
}

func TestAnalysisMetrics(t *testing.T) {
	m := newRunMetrics()
	p, err := newPipeline(config.NewDefault(), nil, m)
	require.NoError(t, err)
	defer p.Close()

	dir := writeFiles(t, map[string]string{
		"f.js": "function f(n) {\n  return n + 1;\n}\nvar x = f(1);\n",
		"g.js": "function f(n) {\n  return n + 2;\n}\nvar x = f(1);\n",
	})
	fp, err := p.load(context.Background(), filepath.Join(dir, "f.js"), filepath.Join(dir, "g.js"), "")
	require.NoError(t, err)
	_, err = p.analyze(context.Background(), fp, facts.New())
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.pairs.WithLabelValues("Done")))
	for _, version := range []string{"src", "dst"} {
		if testutil.ToFloat64(m.instructions.WithLabelValues(version)) == 0 {
			t.Errorf("no instructions recorded for %s", version)
		}
		// At least the script and f.
		require.GreaterOrEqual(t, testutil.ToFloat64(m.frames.WithLabelValues(version)), 2.0)
	}
	require.Zero(t, testutil.ToFloat64(m.solverCalls))
}

func TestNilMetrics(t *testing.T) {
	var m *runMetrics
	m.observeAnalysis("dst", nil)
	m.observeVerification(verify.Stats{Candidates: 1})
	m.observeCache(nil)
}
