// Package pricing implements the progressive, trust-aware, cooldown-aware
// quote engine that prices each state-changing request. It keeps its
// activity bookkeeping in memory, masked behind a single mutex, keyed by
// (agent, context) rather than by IP.
package pricing

import (
	"math"
	"sync"
	"time"
)

const (
	// AnonymousAgent is the fallback agent identifier for requests that
	// carry none.
	AnonymousAgent = "anonymous"

	// DefaultContext is the fallback context bucket for requests that
	// name none.
	DefaultContext = "default"
)

// Breakdown explains how a quote was derived.
type Breakdown struct {
	Base                  int64 `json:"base"`
	Progressive           int64 `json:"progressive"`
	PriorActionsInContext int64 `json:"priorActionsInContext"`
	Final                 int64 `json:"final"`

	TrustScore    *int  `json:"trustScore,omitempty"`
	TrustDiscount int64 `json:"trustDiscount,omitempty"`
	CooldownBonus int64 `json:"cooldownBonus,omitempty"`
}

// activityEntry is one committed action.
type activityEntry struct {
	agentID string
	at      time.Time
}

// Stats summarizes the engine's current bookkeeping.
type Stats struct {
	Contexts     int
	Agents       int
	TotalActions int
}

// Engine is a stateful, process-local quote calculator. One Engine instance
// corresponds to one tenant; a multi-tenant host should construct one per
// tenant rather than share a single Engine, per the process-wide-map design
// note this package implements.
type Engine struct {
	cfg Config

	mtx            sync.Mutex
	activity       map[string][]activityEntry // contextID -> entries
	lastActionTime map[string]time.Time        // agentID -> last commit
}

// New constructs an Engine with the given configuration.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:            cfg,
		activity:       make(map[string][]activityEntry),
		lastActionTime: make(map[string]time.Time),
	}
}

// normalize applies the fallback identifiers for an absent agent or context.
func normalize(agentID, contextID string) (string, string) {
	if agentID == "" {
		agentID = AnonymousAgent
	}
	if contextID == "" {
		contextID = DefaultContext
	}
	return agentID, contextID
}

// Calculate computes the current quote for (agentID, contextID). When
// trustScore is non-nil, the trust-discount branch is evaluated; when nil,
// it is skipped entirely, distinct from a score of 0. When dryRun is
// false, a successful calculation commits the action: it is appended to
// the context's activity list and the agent's last-action timestamp is
// advanced to now.
func (e *Engine) Calculate(agentID, contextID string, trustScore *int,
	dryRun bool) (int64, Breakdown) {

	agentID, contextID = normalize(agentID, contextID)
	now := time.Now()

	e.mtx.Lock()
	defer e.mtx.Unlock()

	priorActions := e.countLocked(agentID, contextID)

	progressive := e.progressive(priorActions)
	price := progressive

	breakdown := Breakdown{
		Base:                  e.cfg.BaseSats,
		Progressive:           progressive,
		PriorActionsInContext: priorActions,
	}

	skipCooldown := false
	if e.cfg.TrustDiscount.Enabled && trustScore != nil {
		score := *trustScore
		breakdown.TrustScore = trustScore

		switch {
		case score >= e.cfg.TrustDiscount.FreeAbove:
			breakdown.TrustDiscount = price
			price = 0
			skipCooldown = true

		case score >= e.cfg.TrustDiscount.DiscountAbove:
			discount := price * int64(e.cfg.TrustDiscount.DiscountPercent) / 100
			newPrice := price - discount
			if newPrice < 1 {
				newPrice = 1
			}
			breakdown.TrustDiscount = price - newPrice
			price = newPrice
		}
	}

	if !skipCooldown && e.cfg.Cooldown.Enabled && price > 0 {
		last, ok := e.lastActionTime[agentID]
		if !ok || now.Sub(last) > e.cfg.Cooldown.Window {
			bonus := price * int64(e.cfg.Cooldown.BonusPercent) / 100
			newPrice := price - bonus
			if newPrice < 1 {
				newPrice = 1
			}
			breakdown.CooldownBonus = price - newPrice
			price = newPrice
		}
	}

	breakdown.Final = price

	if !dryRun {
		e.activity[contextID] = append(e.activity[contextID], activityEntry{
			agentID: agentID,
			at:      now,
		})
		e.lastActionTime[agentID] = now
	}

	return price, breakdown
}

// progressive implements step 2 of the calculate algorithm: geometric in k,
// capped, with k=0 the literal base case rather than a computed power.
func (e *Engine) progressive(priorActions int64) int64 {
	if priorActions == 0 {
		return e.cfg.BaseSats
	}

	raw := float64(e.cfg.BaseSats) * math.Pow(e.cfg.ProgressiveMultiplier, float64(priorActions))
	progressive := int64(math.Ceil(raw))
	if progressive > e.cfg.ProgressiveCap {
		return e.cfg.ProgressiveCap
	}
	return progressive
}

// countLocked returns the number of prior committed actions by agentID in
// contextID. Caller must hold e.mtx.
func (e *Engine) countLocked(agentID, contextID string) int64 {
	var count int64
	for _, entry := range e.activity[contextID] {
		if entry.agentID == agentID {
			count++
		}
	}
	return count
}

// Cleanup drops activity entries (and agent last-action timestamps) older
// than maxAge, and any context buckets left empty as a result.
func (e *Engine) Cleanup(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	e.mtx.Lock()
	defer e.mtx.Unlock()

	for contextID, entries := range e.activity {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.at.After(cutoff) {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(e.activity, contextID)
		} else {
			e.activity[contextID] = kept
		}
	}

	for agentID, last := range e.lastActionTime {
		if last.Before(cutoff) {
			delete(e.lastActionTime, agentID)
		}
	}
}

// Stats summarizes the engine's current state.
func (e *Engine) Stats() Stats {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	agents := make(map[string]struct{})
	var total int

	for _, entries := range e.activity {
		for _, entry := range entries {
			agents[entry.agentID] = struct{}{}
			total++
		}
	}
	for agentID := range e.lastActionTime {
		agents[agentID] = struct{}{}
	}

	return Stats{
		Contexts:     len(e.activity),
		Agents:       len(agents),
		TotalActions: total,
	}
}

// Reset erases all activity and last-action state. Testing hook only.
func (e *Engine) Reset() {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	e.activity = make(map[string][]activityEntry)
	e.lastActionTime = make(map[string]time.Time)
}
