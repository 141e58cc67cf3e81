package auth

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Throwaway key used across tests. Never fund this address.
const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer, err := NewSigner(testKeyHex)
	require.NoError(t, err)

	body := []byte(`{"orders":[{"fightId":0,"amount":100}]}`)
	ts := time.Now().Unix()

	sig, err := signer.SignRequest("POST", "/api/events/UFC-300/boosts", body, ts)
	require.NoError(t, err)

	v := NewRequestVerifier(30 * time.Second)
	addr, err := v.Verify(signer.Address(), "POST", "/api/events/UFC-300/boosts", body, ts, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), addr)
}

func TestVerify_WrongClaimedAddress(t *testing.T) {
	signer, err := NewSigner(testKeyHex)
	require.NoError(t, err)

	ts := time.Now().Unix()
	sig, err := signer.SignRequest("POST", "/path", nil, ts)
	require.NoError(t, err)

	v := NewRequestVerifier(30 * time.Second)
	other := common.HexToAddress("0x1111111111111111111111111111111111111111")
	_, err = v.Verify(other, "POST", "/path", nil, ts, sig)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerify_TamperedBody(t *testing.T) {
	signer, err := NewSigner(testKeyHex)
	require.NoError(t, err)

	ts := time.Now().Unix()
	sig, err := signer.SignRequest("POST", "/path", []byte(`{"amount":100}`), ts)
	require.NoError(t, err)

	v := NewRequestVerifier(30 * time.Second)
	_, err = v.Verify(signer.Address(), "POST", "/path", []byte(`{"amount":999}`), ts, sig)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerify_StaleTimestamp(t *testing.T) {
	signer, err := NewSigner(testKeyHex)
	require.NoError(t, err)

	ts := time.Now().Add(-2 * time.Minute).Unix()
	sig, err := signer.SignRequest("POST", "/path", nil, ts)
	require.NoError(t, err)

	v := NewRequestVerifier(30 * time.Second)
	_, err = v.Verify(signer.Address(), "POST", "/path", nil, ts, sig)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestRecoverAddress_MalformedSignature(t *testing.T) {
	_, err := RecoverAddress("POST", "/path", nil, 0, "0xdeadbeef")
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = RecoverAddress("POST", "/path", nil, 0, "zz")
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestOperatorKeySet(t *testing.T) {
	set := NewOperatorKeySet([]string{"key-a", "key-b", ""})
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("key-a"))
	assert.True(t, set.Contains("key-b"))
	assert.False(t, set.Contains("key-c"))
	assert.False(t, set.Contains(""))
	assert.NotContains(t, set.String(), "key-a")
}

func TestKeyfileRoundTrip(t *testing.T) {
	blob, err := EncryptKey("0x"+testKeyHex, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)

	_, err = DecryptKey(blob, "wrong")
	assert.Error(t, err)
}

func TestLoadKey_RawTakesPrecedence(t *testing.T) {
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKeyHex, EncryptedKeyPath: "/nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)

	_, err = LoadKey(KeyConfig{})
	assert.Error(t, err)
}
