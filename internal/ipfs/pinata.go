package ipfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zde37/pinata-go-sdk/pinata"
)

// Pinner uploads rendered certificate artifacts to IPFS through Pinata.
// A nil Pinner (no PINATA_JWT configured) disables pinning.
type Pinner struct {
	client *pinata.Pinata
}

func NewFromEnv() *Pinner {
	jwt := os.Getenv("PINATA_JWT")
	if jwt == "" {
		return nil
	}
	return &Pinner{client: pinata.New(pinata.NewAuthWithJWT(jwt))}
}

// PinFile pins the given bytes under name and returns a public gateway URL.
// The SDK pins from disk, so the bytes go through a temp file.
func (p *Pinner) PinFile(ctx context.Context, name string, data []byte) (string, error) {
	if p == nil {
		return "", errors.New("ipfs: pinning not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp("", "pin")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}

	resp, err := p.client.PinFile(path, nil)
	if err != nil {
		return "", fmt.Errorf("ipfs: pin request failed: %w", err)
	}
	if resp == nil || resp.IpfsHash == "" {
		return "", errors.New("ipfs: empty hash in pin response")
	}
	return "https://gateway.pinata.cloud/ipfs/" + resp.IpfsHash, nil
}
