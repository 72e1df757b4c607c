package mac

import (
	"strconv"
	"strings"
)

// Caveat keys recognized by this package. Unknown keys are accepted during
// construction and ignored during verification, per the forward-compatible
// caveat contract.
const (
	CaveatExpiresAt  = "expires_at"
	CaveatEndpoint   = "endpoint"
	CaveatMethod     = "method"
	CaveatContext    = "context"
	CaveatAgent      = "agent"
	CaveatMaxActions = "max_actions"
)

// caveatSeparator is the exact on-wire separator between a caveat's key and
// its value. Both sides carry a single surrounding space.
const caveatSeparator = " = "

// CaveatSet is an ordered collection of (key, value) pairs that will be
// rendered to their canonical string form in insertion order. The order is
// part of the MAC and must never be reshuffled once built.
type CaveatSet struct {
	pairs []caveatPair
}

type caveatPair struct {
	key   string
	value string
}

// NewCaveatSet creates an empty, ordered caveat set.
func NewCaveatSet() *CaveatSet {
	return &CaveatSet{}
}

// Add appends a string-valued caveat. Empty values are never emitted.
func (c *CaveatSet) Add(key, value string) *CaveatSet {
	if value == "" {
		return c
	}
	c.pairs = append(c.pairs, caveatPair{key: key, value: value})
	return c
}

// AddInt appends an integer-valued caveat, rendered as a decimal integer.
func (c *CaveatSet) AddInt(key string, value int64) *CaveatSet {
	return c.Add(key, strconv.FormatInt(value, 10))
}

// Strings renders the caveat set to its exact ordered wire form, one
// "<key> = <value>" string per caveat.
func (c *CaveatSet) Strings() []string {
	out := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		out[i] = p.key + caveatSeparator + p.value
	}
	return out
}

// splitCaveat splits a caveat string on the first " = " into its key and
// value. ok is false if the caveat does not contain the separator.
func splitCaveat(caveat string) (key, value string, ok bool) {
	idx := strings.Index(caveat, caveatSeparator)
	if idx < 0 {
		return "", "", false
	}
	return caveat[:idx], caveat[idx+len(caveatSeparator):], true
}
