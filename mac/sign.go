// Package mac implements the chained-HMAC macaroon construction used to bind
// an L402 credential to a specific Lightning payment hash and a set of
// request-shape caveats.
package mac

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
)

var hexKeyRegexp = regexp.MustCompile("^[0-9a-f]{64}$")

// deriveKey interprets secret as hex bytes if it looks like a 64-character
// lowercase hex string (a 32-byte key), otherwise as raw UTF-8 bytes.
func deriveKey(secret string) []byte {
	if hexKeyRegexp.MatchString(secret) {
		key, err := hex.DecodeString(secret)
		if err == nil {
			return key
		}
	}
	return []byte(secret)
}

// sign computes HMAC-SHA256(key, msg) and returns it hex-encoded, mirroring
// the chained-signature step of the macaroon construction.
func sign(key []byte, msg string) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}

// chainSignature computes the final signature for a macaroon over id and an
// ordered list of caveat strings:
//
//	sig0 = HMAC-SHA256(secret, id)
//	sig(i+1) = HMAC-SHA256(hex(sig_i), caveat_i)
//
// The key for every chained step is the ASCII hex representation of the
// prior signature, not its raw bytes; this is part of the on-wire contract
// and must not change.
func chainSignature(secret, id string, caveats []string) string {
	sig := sign(deriveKey(secret), id)
	for _, caveat := range caveats {
		sig = sign([]byte(sig), caveat)
	}
	return sig
}

// constantTimeEqual reports whether two hex signatures are equal, without
// leaking timing information about the point of first mismatch.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
