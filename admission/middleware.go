package admission

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/l402gate/tollgate/mac"
	"github.com/l402gate/tollgate/pricing"
	"github.com/l402gate/tollgate/trust"
	"github.com/l402gate/tollgate/wallet"
	"github.com/lightningnetwork/lnd/lntypes"
)

// RouteConfig is the per-route configuration the middleware consults to
// extract identifiers, describe the invoice, and size the issued
// macaroon's lifetime.
type RouteConfig struct {
	// AgentFrom extracts the agent identifier. Nil falls back to the
	// X-Agent-Id header, then AnonymousAgent.
	AgentFrom Extractor

	// ContextFrom extracts the context identifier. Nil falls back to
	// DefaultContext.
	ContextFrom Extractor

	// Description is the human-readable invoice description. Empty
	// defaults to "<ConfigDesc>: <contextId>".
	Description string

	// ConfigDesc names this route for the default Description.
	ConfigDesc string

	// InvoiceTTL is the macaroon expires_at offset from now. Zero
	// defaults to 600s.
	InvoiceTTL time.Duration
}

const defaultInvoiceTTL = 600 * time.Second

// Middleware glues the MAC primitive, macaroon codec, wallet adapter,
// pricing engine, and trust resolver into the per-request L402 state
// machine: an accept/challenge split exposed as a single http.Handler
// wrapper.
type Middleware struct {
	Secret  string
	Wallet  wallet.Backend
	Pricing *pricing.Engine
	Trust   trust.Resolver
}

// NewMiddleware constructs a Middleware. secret, w, and pricer must be
// non-nil; resolver may be nil, in which case trust scores are always
// unknown.
func NewMiddleware(secret string, w wallet.Backend, pricer *pricing.Engine,
	resolver trust.Resolver) (*Middleware, error) {

	if secret == "" {
		return nil, fmt.Errorf("admission: secret is required")
	}
	if w == nil {
		return nil, fmt.Errorf("admission: wallet backend is required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("admission: pricing engine is required")
	}

	return &Middleware{
		Secret:  secret,
		Wallet:  w,
		Pricing: pricer,
		Trust:   resolver,
	}, nil
}

// Wrap returns an http.Handler that admits requests per the L402 state
// machine before invoking next.
func (m *Middleware) Wrap(route RouteConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasL402Authorization(r.Header) {
			m.verify(w, r, route, next)
			return
		}
		m.quote(w, r, route, next)
	})
}

// verify handles a request that already carries an L402 Authorization
// header: parse, decode, check the preimage, check the MAC and caveats,
// commit the activity, and invoke next.
func (m *Middleware) verify(w http.ResponseWriter, r *http.Request,
	route RouteConfig, next http.Handler) {

	cred, err := parseAuthHeader(r.Header)
	if err != nil {
		writeUnauthorized(w, err.Error())
		return
	}

	decoded, err := mac.Decode(cred.macaroonB64)
	if err != nil {
		writeUnauthorized(w, "Invalid macaroon encoding")
		return
	}

	preimage, err := lntypes.MakePreimageFromStr(cred.preimageHex)
	if err != nil {
		writeUnauthorized(w, "Invalid macaroon encoding")
		return
	}

	paymentHash, err := lntypes.MakeHashFromStr(decoded.ID)
	if err != nil {
		writeUnauthorized(w, "Invalid macaroon encoding")
		return
	}
	if !wallet.VerifyPreimage(preimage, paymentHash) {
		writeUnauthorized(w, "Preimage does not match payment hash")
		return
	}

	agentID := extractAgent(r, route.AgentFrom)
	contextID := extractContext(r, route.ContextFrom)

	verifyErr := decoded.Verify(m.Secret, mac.VerifyContext{
		Endpoint:  r.URL.Path,
		Method:    r.Method,
		ContextID: contextID,
		AgentID:   agentID,
		Now:       time.Now(),
	})
	if verifyErr != nil {
		VerifyOutcomes.WithLabelValues("rejected").Inc()
		writeUnauthorized(w, mac.Detail(verifyErr))
		return
	}
	VerifyOutcomes.WithLabelValues("accepted").Inc()

	m.Pricing.Calculate(agentID, contextID, nil, false)

	ctx := withValue(r.Context(), KeyTollPaid, true)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// quote handles a request with no L402 Authorization header: compute a
// dry-run quote, and either invoke next directly (free pass) or mint an
// invoice and macaroon and respond with a 402 challenge.
func (m *Middleware) quote(w http.ResponseWriter, r *http.Request,
	route RouteConfig, next http.Handler) {

	agentID := extractAgent(r, route.AgentFrom)
	contextID := extractContext(r, route.ContextFrom)

	var trustScore *int
	if m.Trust != nil {
		trustScore, _ = trust.BoundedGetScore(r.Context(), m.Trust, agentID)
	}

	sats, breakdown := m.Pricing.Calculate(agentID, contextID, trustScore, true)

	if sats == 0 {
		FreePassesGranted.Inc()
		ctx := withValue(r.Context(), KeyTollFree, true)
		next.ServeHTTP(w, r.WithContext(ctx))
		return
	}

	description := route.Description
	if description == "" {
		description = fmt.Sprintf("%s: %s", route.ConfigDesc, contextID)
	}

	ctx, cancel := context.WithTimeout(r.Context(), wallet.CallTimeout)
	defer cancel()

	invoice, err := m.Wallet.CreateInvoice(ctx, sats, description)
	if err != nil {
		WalletErrors.Inc()
		log.Errorf("admission: wallet error minting invoice: %v", err)
		failOpen(w, r, next)
		return
	}

	ttl := route.InvoiceTTL
	if ttl == 0 {
		ttl = defaultInvoiceTTL
	}

	caveats := mac.NewCaveatSet().
		AddInt(mac.CaveatExpiresAt, time.Now().Add(ttl).Unix()).
		Add(mac.CaveatEndpoint, r.URL.Path).
		Add(mac.CaveatMethod, r.Method).
		Add(mac.CaveatContext, contextID).
		Add(mac.CaveatAgent, agentID)

	macaroonID := hex.EncodeToString(invoice.PaymentHash[:])
	minted := mac.New(m.Secret, macaroonID, caveats)

	encoded, err := mac.Encode(minted)
	if err != nil {
		log.Errorf("admission: failed to encode macaroon: %v", err)
		failOpen(w, r, next)
		return
	}

	ChallengesIssued.Inc()
	writeChallenge(w, challengeBody{
		Status:      http.StatusPaymentRequired,
		Message:     "Payment Required",
		Protocol:    "L402",
		PaymentHash: macaroonID,
		Invoice:     invoice.Bolt11,
		Macaroon:    encoded,
		AmountSats:  sats,
		ContextID:   contextID,
		Description: description,
		Pricing:     breakdown,
		Instructions: instructions{
			Step1: fmt.Sprintf("Pay the Lightning invoice: %s", invoice.Bolt11),
			Step2: "Obtain the payment preimage from your wallet.",
			Step3: fmt.Sprintf(
				"Retry with Authorization: L402 %s:<preimage>", encoded,
			),
		},
	})
}

// failOpen records that a wallet or codec error occurred and invokes next
// without tolling, per the fail-open availability policy.
func failOpen(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := withValue(r.Context(), KeyTollError, true)
	next.ServeHTTP(w, r.WithContext(ctx))
}
