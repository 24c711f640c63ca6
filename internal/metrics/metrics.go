// Package metrics exposes the market maker's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RoundsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "mm_rounds_total", Help: "Completed passes over the account list"},
	)
	AccountCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mm_account_cycles_total", Help: "Per-account cycles by outcome"},
		[]string{"outcome"},
	)
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mm_decisions_total", Help: "Trade decisions by action"},
		[]string{"action"},
	)
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mm_swaps_total", Help: "Swaps by direction and mode (dry_run|submitted)"},
		[]string{"direction", "mode"},
	)
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mm_errors_total", Help: "Cycle errors by kind"},
		[]string{"kind"},
	)
	HoldingsValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "mm_holdings_reference_value", Help: "Account holdings valued in the reference token"},
		[]string{"account"},
	)
)

func init() {
	prometheus.MustRegister(RoundsTotal, AccountCyclesTotal, DecisionsTotal, SwapsTotal, ErrorsTotal, HoldingsValue)
}

// Handler serves /metrics and a trivial /healthz.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func Serve(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: Handler()}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
