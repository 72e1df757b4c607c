package admission

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposed for a hosting process to register and scrape. Kept as
// package-level vars and incremented inline at the call sites that observe
// each outcome rather than routed through a reporting interface.
var (
	ChallengesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tollgate",
		Name:      "challenges_issued_total",
		Help:      "Number of 402 payment challenges issued",
	})

	FreePassesGranted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tollgate",
		Name:      "free_passes_total",
		Help:      "Number of requests admitted without a toll",
	})

	VerifyOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tollgate",
		Name:      "verify_outcomes_total",
		Help:      "Number of credential verification attempts, by outcome",
	}, []string{"outcome"})

	WalletErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tollgate",
		Name:      "wallet_errors_total",
		Help:      "Number of wallet backend errors that triggered fail-open",
	})
)
