package admission

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/l402gate/tollgate/pricing"
)

// Extractor pulls an identifier out of an HTTP request. Concrete variants
// read a header, a JSON body field, or a URL query parameter; which one
// applies is a per-route configuration choice fixed when the route is
// built, not a dotted path interpreted per request. This is the statically
// typed alternative the design notes prefer over a dotted-path interpreter.
type Extractor interface {
	Extract(r *http.Request) string
}

// HeaderExtractor reads an identifier from a named HTTP header.
type HeaderExtractor struct{ Name string }

// Extract is part of the Extractor interface.
func (h HeaderExtractor) Extract(r *http.Request) string {
	return r.Header.Get(h.Name)
}

// ParamExtractor reads an identifier from a URL query parameter.
type ParamExtractor struct{ Name string }

// Extract is part of the Extractor interface.
func (p ParamExtractor) Extract(r *http.Request) string {
	return r.URL.Query().Get(p.Name)
}

// BodyFieldExtractor reads an identifier from a top-level field of a JSON
// request body. The body is re-attached to the request after reading so
// the downstream handler can still consume it.
type BodyFieldExtractor struct{ Field string }

// Extract is part of the Extractor interface.
func (b BodyFieldExtractor) Extract(r *http.Request) string {
	if r.Body == nil {
		return ""
	}

	raw, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}

	value, ok := parsed[b.Field]
	if !ok {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	return str
}

// extractAgent returns the configured extractor's value, or the
// conventional X-Agent-Id header, or AnonymousAgent.
func extractAgent(r *http.Request, extractor Extractor) string {
	if extractor != nil {
		if value := extractor.Extract(r); value != "" {
			return value
		}
	}
	if value := r.Header.Get("X-Agent-Id"); value != "" {
		return value
	}
	return pricing.AnonymousAgent
}

// extractContext returns the configured extractor's value, or
// DefaultContext.
func extractContext(r *http.Request, extractor Extractor) string {
	if extractor != nil {
		if value := extractor.Extract(r); value != "" {
			return value
		}
	}
	return pricing.DefaultContext
}
