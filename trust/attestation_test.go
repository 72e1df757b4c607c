package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tagged(key, value string) []string { return []string{key, value} }

func TestScoreFromEventsDedupsByAttesterKeepingMostRecent(t *testing.T) {
	now := time.Now()

	events := []nostrEvent{
		{
			PubKey:    "attester-1",
			CreatedAt: now.Add(-time.Hour).Unix(),
			Tags:      [][]string{tagged("attestation-type", "general-trust")},
		},
		{
			PubKey:    "attester-1",
			CreatedAt: now.Unix(),
			Tags:      [][]string{tagged("attestation-type", "service-quality")},
		},
	}

	// Five distinct attesters are required to reach networkFactor=1; with
	// just one deduped attester, networkFactor is 1/5.
	score := scoreFromEvents("subject", events)
	require.NotNil(t, score)

	weight := attestationTypeWeight("service-quality")
	quality := weight / weight // decay ~= 1 for a fresh event
	expected := int(1.0 / 5 * quality * 100)
	require.InDelta(t, expected, *score, 1)
}

func TestScoreFromEventsNoEventsIsUnknown(t *testing.T) {
	require.Nil(t, scoreFromEvents("subject", nil))
}

func TestScoreFromEventsAllSelfAttestationsIsZeroNotUnknown(t *testing.T) {
	now := time.Now()

	events := []nostrEvent{
		{
			PubKey:    "subject",
			CreatedAt: now.Unix(),
			Tags:      [][]string{tagged("attestation-type", "service-quality")},
		},
	}

	score := scoreFromEvents("subject", events)
	require.NotNil(t, score)
	require.Equal(t, 0, *score)
}

func TestScoreFromEventsExcludesSelfAttestationsFromThirdPartyScore(t *testing.T) {
	now := time.Now()

	withSelf := []nostrEvent{
		{PubKey: "subject", CreatedAt: now.Unix(), Tags: [][]string{tagged("attestation-type", "service-quality")}},
		{PubKey: "attester-1", CreatedAt: now.Unix(), Tags: [][]string{tagged("attestation-type", "general-trust")}},
	}
	withoutSelf := []nostrEvent{
		{PubKey: "attester-1", CreatedAt: now.Unix(), Tags: [][]string{tagged("attestation-type", "general-trust")}},
	}

	scoreWithSelf := scoreFromEvents("subject", withSelf)
	scoreWithoutSelf := scoreFromEvents("subject", withoutSelf)
	require.NotNil(t, scoreWithSelf)
	require.NotNil(t, scoreWithoutSelf)
	require.Equal(t, *scoreWithoutSelf, *scoreWithSelf)
}

func TestScoreFromEventsFullNetworkFreshAttestations(t *testing.T) {
	now := time.Now()

	var events []nostrEvent
	for i := 0; i < 5; i++ {
		events = append(events, nostrEvent{
			PubKey:    string(rune('a' + i)),
			CreatedAt: now.Unix(),
			Tags:      [][]string{tagged("attestation-type", "identity-continuity")},
		})
	}

	score := scoreFromEvents("subject", events)
	require.NotNil(t, score)
	require.InDelta(t, 100, *score, 2)
}

func TestScoreFromEventsDecaysWithAge(t *testing.T) {
	now := time.Now()

	fresh := scoreFromEvents("subject", []nostrEvent{
		{PubKey: "a", CreatedAt: now.Unix(), Tags: [][]string{tagged("attestation-type", "general-trust")}},
	})
	old := scoreFromEvents("subject", []nostrEvent{
		{PubKey: "a", CreatedAt: now.Add(-attestationHalfLife).Unix(), Tags: [][]string{tagged("attestation-type", "general-trust")}},
	})

	require.NotNil(t, fresh)
	require.NotNil(t, old)
	require.Greater(t, *fresh, *old)
}

func TestAttestationTypeWeightDefaultsForUnknownType(t *testing.T) {
	require.Equal(t, 0.8, attestationTypeWeight("something-new"))
	require.Equal(t, 1.5, attestationTypeWeight("service-quality"))
}

func TestNostrEventVerifyRejectsMalformedFields(t *testing.T) {
	bad := nostrEvent{ID: "not-hex", PubKey: "also-not-hex", Sig: "nope"}
	require.False(t, bad.verify())
}
