// Package auth provides request authentication for the Booster API: operator
// API keys and secp256k1 signature verification for bettor endpoints.
package auth

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Signer produces bettor request signatures from a secp256k1 private key.
// The server side only verifies; this type exists for clients and tests.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key, with
// or without the 0x prefix.
func NewSigner(privateKeyHex string) (*Signer, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid private key: %w", err)
	}
	return &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
	}, nil
}

// Address returns the Ethereum address derived from the signer's key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignRequest signs the canonical request message for the given fields and
// returns a hex-encoded 65-byte signature (r || s || v, v in {27,28}).
func (s *Signer) SignRequest(method, path string, body []byte, unixTS int64) (string, error) {
	digest := requestDigest(method, path, body, unixTS)
	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("auth: signing: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return "0x" + hex.EncodeToString(sig), nil
}

// requestDigest hashes the canonical request message under the EIP-191
// personal-sign prefix:
//
//	keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg)
//
// where msg = timestamp + "\n" + method + "\n" + path + "\n" + body.
func requestDigest(method, path string, body []byte, unixTS int64) []byte {
	msg := make([]byte, 0, 64+len(body))
	msg = strconv.AppendInt(msg, unixTS, 10)
	msg = append(msg, '\n')
	msg = append(msg, method...)
	msg = append(msg, '\n')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	msg = append(msg, body...)

	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(msg))
	return ethcrypto.Keccak256([]byte(prefix), msg)
}
