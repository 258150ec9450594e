package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndVerifyToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tok, err := CreateToken(42, "issuer")
	require.NoError(t, err)

	claims, err := VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "issuer", claims.Role)
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	tok, err := CreateToken(42, "verifier")
	require.NoError(t, err)

	_, err = VerifyToken(tok + "x")
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "different-secret")
	_, err = VerifyToken(tok)
	assert.Error(t, err)
}

func TestCreateTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := CreateToken(1, "admin")
	assert.Error(t, err)
}
