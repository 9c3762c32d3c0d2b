package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RecordBatch()
	m.RecordEvent("sent", 120*time.Millisecond)
	m.RecordEvent("sent", 80*time.Millisecond)
	m.RecordEvent("failed", time.Second)
	m.RecordReply("knowledge")

	if got := testutil.ToFloat64(m.events.WithLabelValues("sent")); got != 2 {
		t.Errorf("sent events = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.events.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.replies.WithLabelValues("knowledge")); got != 1 {
		t.Errorf("knowledge replies = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.batches); got != 1 {
		t.Errorf("batches = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordBatch()
	m.RecordEvent("sent", time.Millisecond)
	m.RecordReply("fulfillment")
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordEvent("suppressed", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `relay_events_total{outcome="suppressed"} 1`) {
		t.Errorf("metrics output missing suppressed counter:\n%s", body)
	}
}
