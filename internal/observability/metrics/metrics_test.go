package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveForwardCountsByActionAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewProxyMetrics(reg)

	m.ObserveForward("list", "ok")
	m.ObserveForward("list", "ok")
	m.ObserveForward("create-new-user", "error")

	expected := `
# HELP imed_proxy_forwards_total Total forwards to the upstream appointment service
# TYPE imed_proxy_forwards_total counter
imed_proxy_forwards_total{action="create-new-user",outcome="error"} 1
imed_proxy_forwards_total{action="list",outcome="ok"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "imed_proxy_forwards_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *ProxyMetrics
	m.ObserveForward("list", "ok")
	m.ObserveLatency("list", 0.1)
}

func TestObserveLatencyRegistersSamples(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewProxyMetrics(reg)

	m.ObserveLatency("get-user", 0.25)

	count := testutil.CollectAndCount(m.forwardLatency)
	if count != 1 {
		t.Fatalf("expected one histogram series, got %d", count)
	}
}
