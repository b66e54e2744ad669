package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRecordRequest(t *testing.T) {
	before := counterValue(t, RequestTotal.WithLabelValues("GET", "/api/me", "200"))
	RecordRequest("GET", "/api/me", 200, 15*time.Millisecond)
	after := counterValue(t, RequestTotal.WithLabelValues("GET", "/api/me", "200"))
	if after-before != 1 {
		t.Fatalf("request counter moved by %v, want 1", after-before)
	}
}

func TestRecordAuth(t *testing.T) {
	tests := []struct {
		ok      bool
		outcome string
	}{
		{true, "success"},
		{false, "failure"},
	}
	for _, tt := range tests {
		c := AuthAttemptsTotal.WithLabelValues("login", tt.outcome)
		before := counterValue(t, c)
		RecordAuth("login", tt.ok)
		if got := counterValue(t, c) - before; got != 1 {
			t.Fatalf("%s counter moved by %v", tt.outcome, got)
		}
	}
}

func TestObserveSaveCountsErrors(t *testing.T) {
	before := counterValue(t, StoreSaveErrors)
	ObserveSave(time.Millisecond, nil)
	ObserveSave(time.Millisecond, errors.New("disk full"))
	if got := counterValue(t, StoreSaveErrors) - before; got != 1 {
		t.Fatalf("save errors moved by %v, want 1", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordTransaction("Earned")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `ecobank_transactions_total{type="Earned"}`) {
		t.Fatal("transactions counter missing from exposition")
	}
}

func TestRecordSuspiciousRequest(t *testing.T) {
	c := SuspiciousRequests.WithLabelValues("path_probe")
	before := counterValue(t, c)
	RecordSuspiciousRequest("path_probe")
	if got := counterValue(t, c) - before; got != 1 {
		t.Fatalf("suspicious counter moved by %v, want 1", got)
	}
}
