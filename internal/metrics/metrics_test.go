package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestScoresTotal_Increments(t *testing.T) {
	ScoresTotal.Reset()

	ScoresTotal.WithLabelValues("High Risk").Inc()
	ScoresTotal.WithLabelValues("High Risk").Inc()
	ScoresTotal.WithLabelValues("Low Risk").Inc()

	m := &dto.Metric{}
	counter, err := ScoresTotal.GetMetricWithLabelValues("High Risk")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues failed: %v", err)
	}
	_ = counter.Write(m)

	if m.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2, got %f", m.Counter.GetValue())
	}
}

func TestStatusBucket(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		201: "2xx",
		301: "3xx",
		404: "4xx",
		500: "5xx",
	}
	for code, want := range cases {
		if got := statusBucket(code); got != want {
			t.Errorf("statusBucket(%d): expected %s, got %s", code, want, got)
		}
	}
}
