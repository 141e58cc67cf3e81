package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrBadSignature indicates the signature is malformed or does not
	// recover to the claimed address.
	ErrBadSignature = errors.New("auth: bad signature")

	// ErrStaleTimestamp indicates the signed timestamp is outside the
	// accepted window.
	ErrStaleTimestamp = errors.New("auth: stale timestamp")
)

// RequestVerifier checks bettor request signatures. Each signed request
// carries the caller's address, a Unix timestamp, and a signature over the
// canonical message; the recovered address must match the claimed one and
// the timestamp must fall within the TTL window.
type RequestVerifier struct {
	ttl time.Duration
	now func() time.Time
}

// NewRequestVerifier creates a verifier accepting timestamps within ttl of
// the current time, in either direction to tolerate clock skew.
func NewRequestVerifier(ttl time.Duration) *RequestVerifier {
	return &RequestVerifier{ttl: ttl, now: time.Now}
}

// Verify recovers the signer of the request and returns its address. It
// fails with ErrStaleTimestamp when unixTS is outside the window and with
// ErrBadSignature when recovery fails or the recovered address differs from
// claimed.
func (v *RequestVerifier) Verify(claimed common.Address, method, path string, body []byte, unixTS int64, sigHex string) (common.Address, error) {
	now := v.now().Unix()
	skew := now - unixTS
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > v.ttl {
		return common.Address{}, ErrStaleTimestamp
	}

	recovered, err := RecoverAddress(method, path, body, unixTS, sigHex)
	if err != nil {
		return common.Address{}, err
	}
	if recovered != claimed {
		return common.Address{}, fmt.Errorf("%w: recovered %s, claimed %s", ErrBadSignature, recovered.Hex(), claimed.Hex())
	}
	return recovered, nil
}

// RecoverAddress recovers the Ethereum address that produced sigHex over the
// canonical request message.
func RecoverAddress(method, path string, body []byte, unixTS int64, sigHex string) (common.Address, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: not hex: %v", ErrBadSignature, err)
	}
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("%w: expected 65 bytes, got %d", ErrBadSignature, len(sig))
	}

	// go-ethereum expects the recovery id in {0,1}; wallets emit {27,28}.
	if sig[64] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[64] -= 27
	}

	digest := requestDigest(method, path, body, unixTS)
	pub, err := ethcrypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}
