package anchor

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"certforge/internal/models"
)

// Anchorer signs certificate fingerprints with the service's secp256k1 key
// and, when an RPC endpoint is configured, submits the fingerprint as
// calldata in a zero-value transaction to self. Issuance never depends on
// anchoring succeeding.
type Anchorer struct {
	key    *ecdsa.PrivateKey
	rpcURL string
}

// NewFromEnv builds an Anchorer from ANCHOR_PRIVATE_KEY (hex) and the
// optional ANCHOR_RPC_URL. Returns nil when no key is configured.
func NewFromEnv() (*Anchorer, error) {
	keyHex := os.Getenv("ANCHOR_PRIVATE_KEY")
	if keyHex == "" {
		return nil, nil
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("anchor: bad ANCHOR_PRIVATE_KEY: %w", err)
	}
	return &Anchorer{key: key, rpcURL: os.Getenv("ANCHOR_RPC_URL")}, nil
}

// SignerAddress returns the hex address of the anchoring key.
func (a *Anchorer) SignerAddress() string {
	return crypto.PubkeyToAddress(a.key.PublicKey).Hex()
}

// Anchor signs the fingerprint and optionally submits it on-chain, returning
// the transaction record to persist.
func (a *Anchorer) Anchor(ctx context.Context, certificateID, fp string) (models.AnchorTransaction, error) {
	rec := models.AnchorTransaction{
		CertificateID: certificateID,
		SignerAddress: a.SignerAddress(),
	}
	sig, err := Sign(fp, a.key)
	if err != nil {
		return rec, err
	}
	rec.Signature = sig

	if a.rpcURL != "" {
		txHash, err := a.submit(ctx, fp)
		if err != nil {
			return rec, err
		}
		rec.TxHash = txHash
	}
	return rec, nil
}

func (a *Anchorer) submit(ctx context.Context, fp string) (string, error) {
	client, err := ethclient.DialContext(ctx, a.rpcURL)
	if err != nil {
		return "", fmt.Errorf("anchor: dial rpc: %w", err)
	}
	defer client.Close()

	from := crypto.PubkeyToAddress(a.key.PublicKey)
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("anchor: nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("anchor: gas price: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("anchor: chain id: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &from,
		Value:    big.NewInt(0),
		Gas:      100000,
		GasPrice: gasPrice,
		Data:     []byte(fp),
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), a.key)
	if err != nil {
		return "", fmt.Errorf("anchor: sign tx: %w", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("anchor: send tx: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// Sign produces a hex-encoded recoverable signature over keccak256(fp).
func Sign(fp string, key *ecdsa.PrivateKey) (string, error) {
	if fp == "" {
		return "", errors.New("anchor: empty fingerprint")
	}
	digest := crypto.Keccak256([]byte(fp))
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return "", fmt.Errorf("anchor: sign: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// Verify checks a Sign output against the expected signer address.
func Verify(fp, sigHex, address string) bool {
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return false
	}
	digest := crypto.Keccak256([]byte(fp))
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub).Hex() == address
}
