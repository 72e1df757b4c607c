package trust

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/gorilla/websocket"
)

const (
	// attestationEventKind is the Nostr event kind this resolver
	// subscribes to: application-specific attestations, not a reserved
	// NIP kind.
	attestationEventKind = 30382

	// attestationLimit caps how many attestation events a single relay
	// query collects before the subscription is closed.
	attestationLimit = 50

	// attestationHalfLife is the decay half-life applied to an
	// attestation's age.
	attestationHalfLife = 90 * 24 * time.Hour
)

// attestationTypeWeight returns the weight assigned to an attestation's
// declared type. Unrecognized types default to 0.8.
func attestationTypeWeight(attestationType string) float64 {
	switch attestationType {
	case "service-quality":
		return 1.5
	case "identity-continuity":
		return 1.0
	case "general-trust":
		return 0.8
	case "work-completed":
		return 1.2
	default:
		return 0.8
	}
}

// nostrEvent is the wire shape of a Nostr event, trimmed to the fields this
// resolver needs.
type nostrEvent struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// attestationType reads the event's "attestation-type" tag, if present.
func (e nostrEvent) attestationType() string {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == "attestation-type" {
			return tag[1]
		}
	}
	return ""
}

// verify checks the event's id and schnorr signature, per NIP-01: id is the
// event's own claimed digest and sig is a BIP-340 signature over it by
// pubkey.
func (e nostrEvent) verify() bool {
	idBytes, err := hex.DecodeString(e.ID)
	if err != nil || len(idBytes) != 32 {
		return false
	}
	sigBytes, err := hex.DecodeString(e.Sig)
	if err != nil {
		return false
	}
	pubKeyBytes, err := hex.DecodeString(e.PubKey)
	if err != nil || len(pubKeyBytes) != 32 {
		return false
	}

	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return false
	}
	pubKey, err := schnorr.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}

	return sig.Verify(idBytes, pubKey)
}

// Attestation is a Resolver that derives a trust score from signed
// attestation events gathered across one or more Nostr relays. It is the
// default resolver variant per the external-interface configuration
// surface.
type Attestation struct {
	relays      []string
	domainLabel string
	timeout     time.Duration
	dialer      *websocket.Dialer
}

var _ Resolver = (*Attestation)(nil)

// NewAttestation builds an Attestation resolver querying relays for events
// tagged with domainLabel.
func NewAttestation(relays []string, domainLabel string) *Attestation {
	return &Attestation{
		relays:      relays,
		domainLabel: domainLabel,
		timeout:     3 * time.Second,
		dialer:      websocket.DefaultDialer,
	}
}

// GetScore queries relays in order, stopping at the first that returns any
// events at all, and derives a score from the events collected there.
func (a *Attestation) GetScore(ctx context.Context, agentID string) (*int, error) {
	for _, relay := range a.relays {
		events, err := a.queryRelay(ctx, relay, agentID)
		if err != nil {
			log.Debugf("attestation relay %s query failed: %v", relay, err)
			continue
		}
		if len(events) == 0 {
			continue
		}
		return scoreFromEvents(agentID, events), nil
	}

	return nil, nil
}

// queryRelay opens a subscription to relay, collects up to
// attestationLimit verified events tagged for agentID, and returns them
// once EOSE arrives or the resolver's timeout elapses, whichever is first.
func (a *Attestation) queryRelay(ctx context.Context, relay,
	agentID string) ([]nostrEvent, error) {

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	conn, _, err := a.dialer.DialContext(ctx, relay, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	defer conn.Close()

	subID := "trust-" + agentID
	filter := map[string]interface{}{
		"kinds": []int{attestationEventKind},
		"#d":    []string{a.domainLabel},
		"#p":    []string{agentID},
		"limit": attestationLimit,
	}
	req := []interface{}{"REQ", subID, filter}
	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		conn.Close()
		close(done)
	}()

	var events []nostrEvent
	for len(events) < attestationLimit {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg []json.RawMessage
		if err := json.Unmarshal(raw, &msg); err != nil || len(msg) == 0 {
			continue
		}

		var msgType string
		if err := json.Unmarshal(msg[0], &msgType); err != nil {
			continue
		}

		switch msgType {
		case "EVENT":
			if len(msg) < 3 {
				continue
			}
			var evt nostrEvent
			if err := json.Unmarshal(msg[2], &evt); err != nil {
				continue
			}
			if evt.verify() {
				events = append(events, evt)
			}

		case "EOSE":
			conn.WriteJSON([]interface{}{"CLOSE", subID})
			return events, nil
		}
	}

	return events, nil
}

// scoreFromEvents implements the quality/networkFactor aggregation formula:
// exclude self-attestations, dedup by attester, weight by attestation type,
// decay by age, and scale by how many distinct attesters contributed. A
// subject cannot raise its own score by attesting to itself: an event whose
// pubkey is the subject agentID is dropped before anything else runs. If
// events were seen but every one of them was a self-attestation, the score
// is a known zero, not unknown.
func scoreFromEvents(agentID string, events []nostrEvent) *int {
	latestByAttester := make(map[string]nostrEvent, len(events))
	for _, evt := range events {
		if evt.PubKey == agentID {
			continue
		}
		existing, ok := latestByAttester[evt.PubKey]
		if !ok || evt.CreatedAt > existing.CreatedAt {
			latestByAttester[evt.PubKey] = evt
		}
	}

	if len(latestByAttester) == 0 {
		if len(events) > 0 {
			zero := 0
			return &zero
		}
		return nil
	}

	now := time.Now()
	var weightedSum, weightSum float64

	for _, evt := range latestByAttester {
		weight := attestationTypeWeight(evt.attestationType())
		age := now.Sub(time.Unix(evt.CreatedAt, 0))
		decay := math.Pow(0.5, age.Hours()/attestationHalfLife.Hours())

		weightedSum += weight * decay
		weightSum += weight
	}

	if weightSum == 0 {
		zero := 0
		return &zero
	}

	quality := weightedSum / weightSum
	networkFactor := math.Min(1, float64(len(latestByAttester))/5)
	score := int(math.Round(networkFactor * quality * 100))

	return clamped(score)
}

// Close is a no-op: each query opens and closes its own connection.
func (a *Attestation) Close() error {
	return nil
}
