package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatal(err)
	}
	// registering twice is fine
	if err := Register(reg); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	before := testutil.ToFloat64(Commits.WithLabelValues("success"))
	Commits.WithLabelValues("success").Inc()
	if got := testutil.ToFloat64(Commits.WithLabelValues("success")); got != before+1 {
		t.Errorf("commits = %v, want %v", got, before+1)
	}

	if n := testutil.CollectAndCount(Commits); n == 0 {
		t.Error("expected commits series to be collected")
	}
}
