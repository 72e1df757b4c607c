package admission

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasL402AuthorizationCaseInsensitive(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "l402 abc:def")
	require.True(t, hasL402Authorization(h))
}

func TestHasL402AuthorizationAbsent(t *testing.T) {
	h := http.Header{}
	require.False(t, hasL402Authorization(h))

	h.Set("Authorization", "Bearer abc")
	require.False(t, hasL402Authorization(h))
}

func TestParseAuthHeaderValid(t *testing.T) {
	h := http.Header{}
	preimage := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	h.Set("Authorization", "L402 bWFjYXJvb24=:"+preimage)

	cred, err := parseAuthHeader(h)
	require.NoError(t, err)
	require.Equal(t, "bWFjYXJvb24=", cred.macaroonB64)
	require.Equal(t, preimage, cred.preimageHex)
}

func TestParseAuthHeaderMalformed(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "L402 justamacaroononly")

	_, err := parseAuthHeader(h)
	require.Error(t, err)
}

func TestParseAuthHeaderMissing(t *testing.T) {
	_, err := parseAuthHeader(http.Header{})
	require.Error(t, err)
}
