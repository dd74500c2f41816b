package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JonMunkholm/popstat/internal/core"
	"github.com/JonMunkholm/popstat/internal/indicator"
)

// Metrics must satisfy both recorder interfaces.
var (
	_ core.Recorder      = (*Metrics)(nil)
	_ indicator.Recorder = (*Metrics)(nil)
)

func TestObservePipelineRun(t *testing.T) {
	m := New()

	m.ObservePipelineRun("pop", "ok", 20*time.Millisecond, 101)
	m.ObservePipelineRun("pop", "ok", 10*time.Millisecond, 99)
	m.ObservePipelineRun("pop", "schema_mismatch", time.Millisecond, 0)

	if got := testutil.ToFloat64(m.PipelineRuns.WithLabelValues("pop", "ok")); got != 2 {
		t.Errorf("runs ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PipelineRuns.WithLabelValues("pop", "schema_mismatch")); got != 1 {
		t.Errorf("runs schema_mismatch = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.PipelineRecords); got != 1 {
		t.Errorf("records series = %d, want 1", got)
	}
}

func TestObserveRowsDropped(t *testing.T) {
	m := New()

	m.ObserveRowsDropped("pop", "sentinel", 3)
	m.ObserveRowsDropped("pop", "sentinel", 2)
	m.ObserveRowsDropped("pop", "category", 0)

	if got := testutil.ToFloat64(m.RowsDropped.WithLabelValues("pop", "sentinel")); got != 5 {
		t.Errorf("sentinel = %v, want 5", got)
	}
	if got := testutil.CollectAndCount(m.RowsDropped); got != 1 {
		t.Errorf("series = %d, want 1 (zero counts are not recorded)", got)
	}
}

func TestSetActiveRuns(t *testing.T) {
	m := New()
	m.SetActiveRuns(3)
	m.SetActiveRuns(1)

	if got := testutil.ToFloat64(m.ActiveRuns); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveIndicatorFetch("ok", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`popstat_indicator_fetches_total{outcome="ok"} 1`,
		"popstat_pipeline_active_runs",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
