package trust

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LookupTimeouts counts bounded trust lookups that hit LookupTimeout
// instead of returning a score.
var LookupTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "tollgate",
	Name:      "trust_lookup_timeouts_total",
	Help:      "Number of trust resolver lookups that timed out",
})

// LookupTimeout is the hard deadline imposed on a trust lookup: the
// resolver races a timer, and whichever resolves first wins while the
// runner-up is discarded.
//
// It is a var rather than a const solely so tests can shorten it; nothing
// in production code should reassign it.
var LookupTimeout = 3 * time.Second

// BoundedGetScore calls resolver.GetScore but gives up after LookupTimeout,
// treating a timeout exactly like an unknown score (nil, nil). The
// resolver runs in its own goroutine under the same bounded context, so
// that context is already done once the deadline passes; the goroutine's
// late result goes into a buffered channel that nothing reads.
func BoundedGetScore(ctx context.Context, resolver Resolver,
	agentID string) (*int, error) {

	ctx, cancel := context.WithTimeout(ctx, LookupTimeout)
	defer cancel()

	type result struct {
		score *int
		err   error
	}
	done := make(chan result, 1)

	go func() {
		score, err := resolver.GetScore(ctx, agentID)
		done <- result{score: score, err: err}
	}()

	select {
	case r := <-done:
		return r.score, r.err
	case <-ctx.Done():
		LookupTimeouts.Inc()
		log.Debugf("trust lookup for %s timed out after %s", agentID,
			LookupTimeout)
		return nil, nil
	}
}
