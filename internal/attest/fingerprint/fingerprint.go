// Package fingerprint computes the deterministic content hash that serves as
// a document's identity. Identical bytes always yield the identical digest;
// there is no nonce or salt, by contract, so any party can recompute and
// compare against the ledger-stored value.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"sealedger/internal/attest/models"
	dErrors "sealedger/pkg/domain-errors"
)

// Digest streams r through SHA-256 and returns the lower-case hex digest.
// Binary-safe; the only failure mode is an unreadable source.
func Digest(r io.Reader) (models.Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeIO, "read document bytes")
	}
	return models.Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// DigestBytes hashes an in-memory buffer. Never fails.
func DigestBytes(b []byte) models.Digest {
	sum := sha256.Sum256(b)
	return models.Digest(hex.EncodeToString(sum[:]))
}
