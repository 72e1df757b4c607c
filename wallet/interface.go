// Package wallet provides the narrow Lightning wallet contract the
// admission middleware depends on: mint an invoice, look up its settlement
// status, and verify a preimage against a payment hash.
package wallet

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
)

// ErrInvoiceNotFound is returned by LookupInvoice when the backend has no
// record of the given payment hash.
var ErrInvoiceNotFound = errors.New("invoice not found")

// CallTimeout is the 15s envelope the admission layer puts around its
// wallet round-trip (the CreateInvoice call when minting a challenge).
const CallTimeout = 15 * time.Second

// Invoice is the adapter-internal record of a minted Lightning invoice.
type Invoice struct {
	PaymentHash lntypes.Hash
	Bolt11      string
	AmountSats  int64
	Description string
	CreatedAt   time.Time
	Paid        bool
	Preimage    *lntypes.Preimage
}

// Backend is implemented by anything that can mint and settle Lightning
// invoices on the admission layer's behalf: exactly the two network
// operations the L402 wallet contract needs, poll-based rather than
// streaming, since LookupInvoice must be safe to call repeatedly and
// idempotently.
type Backend interface {
	// CreateInvoice mints a new invoice for amountSats satoshis. The
	// returned Invoice.PaymentHash MUST be the real bolt-11 payment hash
	// extracted from the backend's response, never a fallback digest of
	// the invoice string; preimage verification depends on it.
	CreateInvoice(ctx context.Context, amountSats int64, description string) (*Invoice, error)

	// LookupInvoice returns the current state of a previously minted
	// invoice. It is idempotent and safe to call repeatedly. A missing
	// local cache entry must never be reported as unpaid if the backend
	// itself reports otherwise.
	LookupInvoice(ctx context.Context, paymentHash lntypes.Hash) (*Invoice, error)

	// Close releases any resources (connections, subscriptions) held by
	// the backend.
	Close() error
}

// VerifyPreimage reports whether preimage hashes to paymentHash under
// SHA-256, using a constant-time comparison. This check is identical for
// every backend, so it lives at the package level rather than duplicated
// per implementation.
func VerifyPreimage(preimage lntypes.Preimage, paymentHash lntypes.Hash) bool {
	sum := sha256.Sum256(preimage[:])
	return subtle.ConstantTimeCompare(sum[:], paymentHash[:]) == 1
}

// hashHex is a small helper shared by backends that need to log or key by a
// payment hash's hex form without importing lntypes everywhere.
func hashHex(h lntypes.Hash) string {
	return hex.EncodeToString(h[:])
}
