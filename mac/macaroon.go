package mac

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentinel verification failures. The admission middleware maps each of
// these to the corresponding 401 "detail" string from the L402 protocol.
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpired          = errors.New("macaroon expired")
	ErrMalformedCaveat  = errors.New("malformed caveat")
)

// EndpointMismatchError is returned when a macaroon's endpoint caveat does
// not match the request that presented it.
type EndpointMismatchError struct{ Expected string }

func (e *EndpointMismatchError) Error() string {
	return fmt.Sprintf("endpoint mismatch: expected %s", e.Expected)
}

// Detail renders the capitalized wire-protocol detail string for this
// error, as used in the admission layer's 401 response body.
func (e *EndpointMismatchError) Detail() string {
	return fmt.Sprintf("Endpoint mismatch: expected %s", e.Expected)
}

// MethodMismatchError is returned when a macaroon's method caveat does not
// match the request that presented it.
type MethodMismatchError struct{ Expected string }

func (e *MethodMismatchError) Error() string {
	return fmt.Sprintf("method mismatch: expected %s", e.Expected)
}

// Detail renders the capitalized wire-protocol detail string for this
// error, as used in the admission layer's 401 response body.
func (e *MethodMismatchError) Detail() string {
	return fmt.Sprintf("Method mismatch: expected %s", e.Expected)
}

// ContextMismatchError is returned when a macaroon's context caveat does not
// match the request that presented it.
type ContextMismatchError struct{ Expected string }

func (e *ContextMismatchError) Error() string {
	return fmt.Sprintf("context mismatch: expected %s", e.Expected)
}

// Detail renders the capitalized wire-protocol detail string for this
// error, as used in the admission layer's 401 response body.
func (e *ContextMismatchError) Detail() string {
	return fmt.Sprintf("Context mismatch: expected %s", e.Expected)
}

// AgentMismatchError is returned when a macaroon's agent caveat does not
// match the request that presented it.
type AgentMismatchError struct{ Expected string }

func (e *AgentMismatchError) Error() string {
	return fmt.Sprintf("agent mismatch: expected %s", e.Expected)
}

// Detail renders the capitalized wire-protocol detail string for this
// error, as used in the admission layer's 401 response body.
func (e *AgentMismatchError) Detail() string {
	return fmt.Sprintf("Agent mismatch: expected %s", e.Expected)
}

// Macaroon is the self-contained, keyed-MAC authorization credential bound
// to a payment hash plus an ordered set of request-shape caveats.
type Macaroon struct {
	// ID is the macaroon's root identifier: the hex-encoded payment hash
	// it is bound to.
	ID string `json:"id"`

	// Caveats is the ordered sequence of "<key> = <value>" strings that
	// were chained into the signature. Order is part of the MAC.
	Caveats []string `json:"caveats"`

	// Signature is the final chained HMAC-SHA256 digest, hex-encoded.
	Signature string `json:"signature"`
}

// detailer is implemented by verification errors that carry a
// wire-protocol-capitalized detail string distinct from their Error() form.
type detailer interface {
	Detail() string
}

// Detail renders the 401 "detail" string the L402 wire protocol expects for
// a Verify error: capitalized, with no further internal detail for the two
// sentinel cases. Errors that don't implement detailer (including anything
// not produced by this package) fall back to their Error() string.
func Detail(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSignature):
		return "Invalid signature"
	case errors.Is(err, ErrExpired):
		return "Macaroon expired"
	}
	if d, ok := err.(detailer); ok {
		return d.Detail()
	}
	return err.Error()
}

// New builds and signs a macaroon over id and the given caveat set. secret is
// the server's HMAC root key (hex 32-byte, or UTF-8 otherwise).
func New(secret, id string, caveats *CaveatSet) *Macaroon {
	if caveats == nil {
		caveats = NewCaveatSet()
	}
	strs := caveats.Strings()
	return &Macaroon{
		ID:        id,
		Caveats:   strs,
		Signature: chainSignature(secret, id, strs),
	}
}

// VerifyContext carries the request-derived values that bind a macaroon's
// caveats to the request that presented it.
type VerifyContext struct {
	Endpoint  string
	Method    string
	ContextID string
	AgentID   string
	Now       time.Time
}

// Verify recomputes the macaroon's signature and validates every recognized
// caveat against ctx. Unknown caveat keys are ignored, per the
// forward-compatible caveat contract. The first failing check's error is
// returned.
func (m *Macaroon) Verify(secret string, ctx VerifyContext) error {
	expected := chainSignature(secret, m.ID, m.Caveats)
	if !constantTimeEqual(expected, m.Signature) {
		log.Debugf("macaroon %s failed signature check", m.ID)
		return ErrInvalidSignature
	}

	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	for _, caveat := range m.Caveats {
		key, value, ok := splitCaveat(caveat)
		if !ok {
			return fmt.Errorf("%w: %q", ErrMalformedCaveat, caveat)
		}

		switch key {
		case CaveatExpiresAt:
			expiresAt, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrMalformedCaveat, caveat)
			}
			if now.Unix() > expiresAt {
				return ErrExpired
			}

		case CaveatEndpoint:
			if ctx.Endpoint != value {
				return &EndpointMismatchError{Expected: value}
			}

		case CaveatMethod:
			if !strings.EqualFold(ctx.Method, value) {
				return &MethodMismatchError{Expected: value}
			}

		case CaveatContext:
			if ctx.ContextID != value {
				return &ContextMismatchError{Expected: value}
			}

		case CaveatAgent:
			if ctx.AgentID != value {
				return &AgentMismatchError{Expected: value}
			}

		default:
			// Unknown keys (including max_actions, which is reserved
			// but not yet enforced) are forward-compatible no-ops.
		}
	}

	return nil
}
