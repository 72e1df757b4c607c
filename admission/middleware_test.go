package admission

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/l402gate/tollgate/pricing"
	"github.com/l402gate/tollgate/wallet"
	"github.com/stretchr/testify/require"
)

func mustHexDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func newTestMiddleware(t *testing.T) (*Middleware, *wallet.StubBackend) {
	t.Helper()

	w := wallet.NewStubBackend()
	cfg := pricing.DefaultConfig()
	cfg.TrustDiscount.Enabled = false
	cfg.Cooldown.Enabled = false
	pricer := pricing.New(cfg)

	mw, err := NewMiddleware("test-secret-not-hex", w, pricer, nil)
	require.NoError(t, err)

	return mw, w
}

func echoHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		*calls++
		rw.WriteHeader(http.StatusOK)
	})
}

func TestUnauthenticatedRequestReturns402(t *testing.T) {
	mw, _ := newTestMiddleware(t)

	var calls int
	handler := mw.Wrap(RouteConfig{ConfigDesc: "reply"}, echoHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/threads/42/reply", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.Zero(t, calls)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "L402 invoice=")

	var body challengeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(1), body.AmountSats)
	require.NotEmpty(t, body.PaymentHash)
	require.NotEmpty(t, body.Macaroon)
}

func TestEndToEndPayAndRetry(t *testing.T) {
	mw, w := newTestMiddleware(t)

	var calls int
	handler := mw.Wrap(RouteConfig{ConfigDesc: "reply"}, echoHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/threads/42/reply", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body challengeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	var hash [32]byte
	copy(hash[:], mustHexDecode(t, body.PaymentHash))
	preimage, err := w.Settle(hash)
	require.NoError(t, err)

	retry := httptest.NewRequest(http.MethodPost, "/threads/42/reply", nil)
	retry.Header.Set("Authorization", "L402 "+body.Macaroon+":"+preimage.String())
	retryRec := httptest.NewRecorder()
	handler.ServeHTTP(retryRec, retry)

	require.Equal(t, http.StatusOK, retryRec.Code)
	require.Equal(t, 1, calls)

	// A second unauth request should now quote sats >= 2.
	secondReq := httptest.NewRequest(http.MethodPost, "/threads/42/reply", nil)
	secondRec := httptest.NewRecorder()
	handler.ServeHTTP(secondRec, secondReq)

	var secondBody challengeBody
	require.NoError(t, json.Unmarshal(secondRec.Body.Bytes(), &secondBody))
	require.GreaterOrEqual(t, secondBody.AmountSats, int64(2))
}

func TestUnauthorizedOnBadPreimage(t *testing.T) {
	mw, _ := newTestMiddleware(t)

	var calls int
	handler := mw.Wrap(RouteConfig{ConfigDesc: "reply"}, echoHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/threads/42/reply", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body challengeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	wrongPreimage := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	retry := httptest.NewRequest(http.MethodPost, "/threads/42/reply", nil)
	retry.Header.Set("Authorization", "L402 "+body.Macaroon+":"+wrongPreimage)
	retryRec := httptest.NewRecorder()
	handler.ServeHTTP(retryRec, retry)

	require.Equal(t, http.StatusUnauthorized, retryRec.Code)
	require.Zero(t, calls)

	var failBody authFailureBody
	require.NoError(t, json.Unmarshal(retryRec.Body.Bytes(), &failBody))
	require.Equal(t, "Preimage does not match payment hash", failBody.Detail)
}

func TestUnauthorizedOnEndpointMismatch(t *testing.T) {
	mw, w := newTestMiddleware(t)

	var calls int
	handler := mw.Wrap(RouteConfig{ConfigDesc: "reply"}, echoHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/threads/42/reply", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body challengeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	var hash [32]byte
	copy(hash[:], mustHexDecode(t, body.PaymentHash))
	preimage, err := w.Settle(hash)
	require.NoError(t, err)

	retry := httptest.NewRequest(http.MethodPost, "/threads/99/other", nil)
	retry.Header.Set("Authorization", "L402 "+body.Macaroon+":"+preimage.String())
	retryRec := httptest.NewRecorder()
	handler.ServeHTTP(retryRec, retry)

	require.Equal(t, http.StatusUnauthorized, retryRec.Code)

	var failBody authFailureBody
	require.NoError(t, json.Unmarshal(retryRec.Body.Bytes(), &failBody))
	require.Contains(t, failBody.Detail, "Endpoint mismatch")
}

func TestTrustFreePassInvokesHandlerWithoutChallenge(t *testing.T) {
	w := wallet.NewStubBackend()
	cfg := pricing.DefaultConfig()
	cfg.Cooldown.Enabled = false
	cfg.BaseSats = 10
	pricer := pricing.New(cfg)

	score := 95
	resolver := &fixedScoreResolver{score: &score}

	mw, err := NewMiddleware("test-secret-not-hex", w, pricer, resolver)
	require.NoError(t, err)

	var calls int
	handler := mw.Wrap(RouteConfig{ConfigDesc: "reply"}, echoHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/threads/42/reply", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, calls)
}

type fixedScoreResolver struct{ score *int }

func (f *fixedScoreResolver) GetScore(_ context.Context, _ string) (*int, error) {
	return f.score, nil
}
func (f *fixedScoreResolver) Close() error { return nil }
