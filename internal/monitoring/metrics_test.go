package monitoring

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveService(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveService("fact_check", "success", time.Second, true)
	m.ObserveService("fact_check", "success", time.Second, true)
	m.ObserveService("media_check", "skipped", 0, false)

	if got := testutil.ToFloat64(m.ServiceOutcomes.WithLabelValues("fact_check", "success")); got != 2 {
		t.Errorf("Expected 2 fact successes, got %v", got)
	}
	if got := testutil.CollectAndCount(m.ServiceDuration); got != 1 {
		t.Errorf("Expected duration only for attempted calls, got %d series", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(nil)
	m.ObserveAssessment("ok", 72)
	m.ObserveHTTP("POST", "/analysis/run", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"trustlens_assessments_total", "trustlens_trust_score_bucket", "trustlens_http_requests_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("Expected %s in metrics output", name)
		}
	}
}
