package wallet

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "8f7b3c2e4d5a6978132435465768798a9bacbdcedfe0f1a2b3c4d5e6f7a8b9ca"

func TestNewLocal_AddressDerivation(t *testing.T) {
	w, err := NewLocal(testKeyHex, "secret")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(w.Address(), "secret1"))

	// Same key, same address.
	again, err := NewLocal(testKeyHex, "secret")
	require.NoError(t, err)
	assert.Equal(t, w.Address(), again.Address())

	// Different HRP changes the encoding but not the key material.
	cosmos, err := NewLocal(testKeyHex, "cosmos")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cosmos.Address(), "cosmos1"))
}

func TestNewLocal_RejectsBadKeys(t *testing.T) {
	_, err := NewLocal("not-hex", "secret")
	assert.Error(t, err)

	_, err = NewLocal("abcd", "secret")
	assert.Error(t, err)
}

func TestGenerateLocal(t *testing.T) {
	a, err := GenerateLocal("secret")
	require.NoError(t, err)
	b, err := GenerateLocal("secret")
	require.NoError(t, err)
	assert.NotEqual(t, a.Address(), b.Address())
}

func TestSignAmino_RoundTrip(t *testing.T) {
	w, err := NewLocal(testKeyHex, "secret")
	require.NoError(t, err)

	doc := []byte(`{"account_number":"0","chain_id":"pulsar-3"}`)
	sig, err := w.SignAmino(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "tendermint/PubKeySecp256k1", sig.PubKey.Type)
	raw, err := base64.StdEncoding.DecodeString(sig.Signature)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	signer, err := VerifyAmino(doc, sig, "secret")
	require.NoError(t, err)
	assert.Equal(t, w.Address(), signer)
}

func TestSignAmino_Deterministic(t *testing.T) {
	w, err := NewLocal(testKeyHex, "secret")
	require.NoError(t, err)

	doc := []byte("payload")
	first, err := w.SignAmino(context.Background(), doc)
	require.NoError(t, err)
	second, err := w.SignAmino(context.Background(), doc)
	require.NoError(t, err)

	// RFC 6979 nonces make signatures reproducible.
	assert.Equal(t, first.Signature, second.Signature)
}

func TestVerifyAmino_RejectsTamperedDoc(t *testing.T) {
	w, err := NewLocal(testKeyHex, "secret")
	require.NoError(t, err)

	sig, err := w.SignAmino(context.Background(), []byte("original"))
	require.NoError(t, err)

	_, err = VerifyAmino([]byte("tampered"), sig, "secret")
	assert.Error(t, err)
}

func TestVerifyAmino_RejectsForeignSignature(t *testing.T) {
	signer, err := NewLocal(testKeyHex, "secret")
	require.NoError(t, err)
	other, err := GenerateLocal("secret")
	require.NoError(t, err)

	doc := []byte("shared doc")
	sig, err := signer.SignAmino(context.Background(), doc)
	require.NoError(t, err)

	// Swap in another wallet's public key; the signature no longer verifies.
	otherSig, err := other.SignAmino(context.Background(), doc)
	require.NoError(t, err)
	sig.PubKey = otherSig.PubKey

	_, err = VerifyAmino(doc, sig, "secret")
	assert.Error(t, err)
}
