package gate

import (
	"fmt"
	"net/http"

	"github.com/l402gate/tollgate/admission"
	"github.com/l402gate/tollgate/trust"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusConfig is the set of configuration data that specifies if
// Prometheus metric exporting is activated, and if so the listening address
// of the Prometheus server.
type PrometheusConfig struct {
	// Enabled, if true, then Prometheus metrics will be exported.
	Enabled bool `long:"enabled" description:"if true prometheus metrics will be exported"`

	// ListenAddr is the listening address that we should use to allow the
	// main Prometheus server to scrape our metrics.
	ListenAddr string `long:"listenaddr" description:"the interface we should listen on for prometheus"`
}

// StartPrometheusExporter registers the admission and trust packages'
// metrics, then launches the dedicated HTTP server that serves both the
// Prometheus scrape endpoint and the liveness probe, kept off the proxied
// traffic's listener entirely.
func StartPrometheusExporter(cfg *PrometheusConfig) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if !cfg.Enabled {
		return nil
	}

	prometheus.MustRegister(
		admission.ChallengesIssued,
		admission.FreePassesGranted,
		admission.VerifyOutcomes,
		admission.WalletErrors,
		trust.LookupTimeouts,
	)
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Infof("Prometheus metrics http endpoint being served on %s",
			cfg.ListenAddr)

		fmt.Println(http.ListenAndServe(cfg.ListenAddr, mux))
	}()

	return nil
}
