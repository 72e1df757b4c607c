// Package admission implements the per-request L402 state machine: classify
// the incoming request's Authorization header, then either verify a
// presented credential or quote and challenge for a new one.
package admission

import "context"

// ContextKey is the type used to stash admission outcomes in a request
// context. The string is wrapped in a struct so it can't collide with a
// plain string or int key set by an unrelated package.
type ContextKey struct{ Name string }

var (
	// KeyTollPaid marks that the request's L402 credential was verified
	// and its activity committed.
	KeyTollPaid = ContextKey{"toll-paid"}

	// KeyTollFree marks that the quoted price was zero (a trust-based
	// free pass) so the handler ran without requiring payment.
	KeyTollFree = ContextKey{"toll-free"}

	// KeyTollError marks that an internal error occurred while minting a
	// challenge; the fail-open policy still invokes the handler, with
	// this value available for a wrapping handler to reclassify.
	KeyTollError = ContextKey{"toll-error"}
)

// FromContext retrieves a value stashed under key, if any.
func FromContext(ctx context.Context, key ContextKey) interface{} {
	return ctx.Value(key)
}

func withValue(ctx context.Context, key ContextKey, value interface{}) context.Context {
	return context.WithValue(ctx, key, value)
}
