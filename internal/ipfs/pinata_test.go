package ipfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFromEnvRequiresJWT(t *testing.T) {
	t.Setenv("PINATA_JWT", "")
	assert.Nil(t, NewFromEnv())

	t.Setenv("PINATA_JWT", "test-jwt")
	assert.NotNil(t, NewFromEnv())
}

func TestNilPinnerRefuses(t *testing.T) {
	var p *Pinner
	_, err := p.PinFile(context.Background(), "cert.pptx", []byte("data"))
	assert.Error(t, err)
}

func TestPinFileHonorsContext(t *testing.T) {
	t.Setenv("PINATA_JWT", "test-jwt")
	p := NewFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.PinFile(ctx, "cert.pptx", []byte("data"))
	assert.ErrorIs(t, err, context.Canceled)
}
