package admission

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// authHeaderRegex matches "L402 <macaroon>:<preimage>" case-insensitively
// on the scheme tag, with exactly one colon separating the two parts.
var authHeaderRegex = regexp.MustCompile(`(?i)^L402\s+([^:]+):([0-9a-fA-F]{64})$`)

// credential is the parsed content of a presented Authorization header.
type credential struct {
	macaroonB64  string
	preimageHex string
}

// parseAuthHeader extracts the macaroon and preimage from an L402
// Authorization header. It returns an error describing the malformed-input
// case, surfaced verbatim as the 401 "detail" string.
func parseAuthHeader(header http.Header) (*credential, error) {
	raw := header.Get("Authorization")
	if raw == "" {
		return nil, fmt.Errorf("Invalid L402 format: missing Authorization header")
	}

	matches := authHeaderRegex.FindStringSubmatch(strings.TrimSpace(raw))
	if len(matches) != 3 {
		return nil, fmt.Errorf("Invalid L402 format: malformed Authorization header")
	}

	return &credential{
		macaroonB64: matches[1],
		preimageHex: matches[2],
	}, nil
}

// hasL402Authorization reports whether the request carries an Authorization
// header using the L402 scheme, per the admission state machine's initial
// classification step.
func hasL402Authorization(header http.Header) bool {
	raw := strings.TrimSpace(header.Get("Authorization"))
	return len(raw) >= 5 && strings.EqualFold(raw[:5], "L402 ")
}
