// Package wallet defines the signing surface the workflow needs from a
// wallet: an address and an amino signature over a canonical payload. Key
// management stays behind the interface; the core never sees raw key
// material beyond what a local dev wallet holds for itself.
package wallet

import "context"

// PubKey is the amino-encoded public key that travels with a signature.
type PubKey struct {
	Type  string `json:"type"`
	Value string `json:"value"` // base64 compressed secp256k1 point
}

// StdSignature is an amino signature: the signer's public key plus the
// base64 r||s signature bytes.
type StdSignature struct {
	PubKey    PubKey `json:"pub_key"`
	Signature string `json:"signature"`
}

// Wallet signs canonical amino payloads. Implementations may hold a local
// key or proxy to an external signer; either way SignAmino must be
// deterministic for a fixed payload so permits stay replay-stable.
type Wallet interface {
	// Address returns the bech32 account address.
	Address() string
	// SignAmino signs the exact bytes of a canonical sign doc.
	SignAmino(ctx context.Context, signDoc []byte) (StdSignature, error)
}
