package anchor

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundtrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()

	fp := "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"
	sig, err := Sign(fp, key)
	require.NoError(t, err)

	assert.True(t, Verify(fp, sig, addr))
	assert.False(t, Verify(fp+"0", sig, addr), "different fingerprint")
	assert.False(t, Verify(fp, sig, "0x0000000000000000000000000000000000000000"), "wrong signer")
	assert.False(t, Verify(fp, "zz", addr), "garbage signature")
}

func TestSignEmptyFingerprint(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = Sign("", key)
	assert.Error(t, err)
}
