package wallet

import (
	"crypto/sha256"
	"testing"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/require"
)

func TestVerifyPreimage(t *testing.T) {
	preimage, err := lntypes.MakePreimage([]byte(
		"0123456789abcdef0123456789abcdef",
	)[:32])
	require.NoError(t, err)

	hash := sha256.Sum256(preimage[:])
	paymentHash, err := lntypes.MakeHash(hash[:])
	require.NoError(t, err)

	require.True(t, VerifyPreimage(preimage, paymentHash))

	var wrongHash lntypes.Hash
	require.False(t, VerifyPreimage(preimage, wrongHash))
}
