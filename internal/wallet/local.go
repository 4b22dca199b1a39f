package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/ripemd160"

	dErrors "sealedger/pkg/domain-errors"
)

// pubKeyTypeSecp256k1 is the amino type tag the chain expects.
const pubKeyTypeSecp256k1 = "tendermint/PubKeySecp256k1"

// Local is an in-process secp256k1 wallet. Suitable for development and
// tests; production deployments are expected to substitute an external
// signer behind the Wallet interface.
type Local struct {
	priv    *secp256k1.PrivateKey
	address string
}

// NewLocal derives a wallet from a hex-encoded private key. The account
// address is bech32(hrp, ripemd160(sha256(compressed_pubkey))), the standard
// derivation for the target chain family.
func NewLocal(privHex, hrp string) (*Local, error) {
	raw, err := hex.DecodeString(privHex)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeAuthorization, "decode private key")
	}
	if len(raw) != 32 {
		return nil, dErrors.New(dErrors.CodeAuthorization, "private key must be 32 bytes")
	}
	priv := secp256k1.PrivKeyFromBytes(raw)

	addr, err := deriveAddress(priv.PubKey().SerializeCompressed(), hrp)
	if err != nil {
		return nil, err
	}
	return &Local{priv: priv, address: addr}, nil
}

// GenerateLocal creates a wallet with a fresh random key. Development-mode
// only; the key is never persisted.
func GenerateLocal(hrp string) (*Local, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeAuthorization, "generate private key")
	}
	addr, err := deriveAddress(priv.PubKey().SerializeCompressed(), hrp)
	if err != nil {
		return nil, err
	}
	return &Local{priv: priv, address: addr}, nil
}

func deriveAddress(compressedPub []byte, hrp string) (string, error) {
	sha := sha256.Sum256(compressedPub)
	rip := ripemd160.New()
	rip.Write(sha[:])
	conv, err := bech32.ConvertBits(rip.Sum(nil), 8, 5, true)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeAuthorization, "convert address bits")
	}
	addr, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeAuthorization, "encode bech32 address")
	}
	return addr, nil
}

func (w *Local) Address() string { return w.address }

// SignAmino signs sha256(signDoc) with RFC 6979 deterministic ECDSA and
// returns the 64-byte r||s form the chain verifies.
func (w *Local) SignAmino(_ context.Context, signDoc []byte) (StdSignature, error) {
	digest := sha256.Sum256(signDoc)
	compact := secpecdsa.SignCompact(w.priv, digest[:], true)
	// SignCompact prefixes a recovery byte; amino signatures carry only r||s.
	return StdSignature{
		PubKey: PubKey{
			Type:  pubKeyTypeSecp256k1,
			Value: base64.StdEncoding.EncodeToString(w.priv.PubKey().SerializeCompressed()),
		},
		Signature: base64.StdEncoding.EncodeToString(compact[1:]),
	}, nil
}

// VerifyAmino checks sig against the canonical sign doc and reports the
// bech32 address recovered from the embedded public key. Ledger-side permit
// validation uses this to learn who signed.
func VerifyAmino(signDoc []byte, sig StdSignature, hrp string) (string, error) {
	pubRaw, err := base64.StdEncoding.DecodeString(sig.PubKey.Value)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeAuthorization, "decode public key")
	}
	pub, err := secp256k1.ParsePubKey(pubRaw)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeAuthorization, "parse public key")
	}
	sigRaw, err := base64.StdEncoding.DecodeString(sig.Signature)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeAuthorization, "decode signature")
	}
	if len(sigRaw) != 64 {
		return "", dErrors.New(dErrors.CodeAuthorization, "signature must be 64 bytes r||s")
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sigRaw[:32]); overflow {
		return "", dErrors.New(dErrors.CodeAuthorization, "malformed signature r")
	}
	if overflow := s.SetByteSlice(sigRaw[32:]); overflow {
		return "", dErrors.New(dErrors.CodeAuthorization, "malformed signature s")
	}
	digest := sha256.Sum256(signDoc)
	if !secpecdsa.NewSignature(&r, &s).Verify(digest[:], pub) {
		return "", dErrors.New(dErrors.CodeAuthorization, "signature does not verify")
	}
	return deriveAddress(pub.SerializeCompressed(), hrp)
}
