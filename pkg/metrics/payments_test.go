package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPaymentMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPaymentMetrics(reg)

	metrics.IncSettled("success")
	metrics.IncSettled("failed")
	metrics.IncSettled("success")
	metrics.IncExpired()
	metrics.IncReconciled()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "payments_settled_total", "status", "success"); err != nil {
		t.Fatalf("fetch settled: %v", err)
	} else if got != 2 {
		t.Fatalf("expected settled success=2, got %f", got)
	}

	if mf := findMetricFamily(mfs, "payments_expired_total"); mf == nil {
		t.Fatal("expired counter not registered")
	} else if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected expired=1")
	}

	if mf := findMetricFamily(mfs, "payments_reconciled_total"); mf == nil {
		t.Fatal("reconciled counter not registered")
	} else if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected reconciled=1")
	}
}

func TestPaymentMetricsNilRegisterer(t *testing.T) {
	metrics := NewPaymentMetrics(nil)
	metrics.IncSettled("success")
	metrics.IncExpired()
	metrics.IncReconciled()
}
