// Package lineseal derives the line commitment: a digest binding the
// structured record fields to the document fingerprint. A fingerprint
// mismatch means "wrong document"; a line-hash mismatch with a matching
// fingerprint means "wrong data". The two checks are independent.
package lineseal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"sealedger/internal/attest/models"
)

// sep joins the canonical fields. It is part of the wire contract: a reader
// that canonicalizes differently cannot verify committed records.
const sep = "|"

// Canonical returns the exact byte string that is hashed. Field order is
// fixed and documented: invoice_number, date, client_name, description,
// total_amount, tax_amount, currency, then the document fingerprint last.
// Values are used verbatim; no trimming, casing or numeric normalization.
func Canonical(rec models.ExtractedRecord, doc models.Digest) string {
	return strings.Join([]string{
		rec.InvoiceNumber,
		rec.Date,
		rec.ClientName,
		rec.Description,
		rec.TotalAmount,
		rec.TaxAmount,
		rec.Currency,
		doc.String(),
	}, sep)
}

// Seal hashes the canonical form with the same primitive as the document
// fingerprint. Any change to any field, or to the source document, changes
// the result.
func Seal(rec models.ExtractedRecord, doc models.Digest) models.Digest {
	sum := sha256.Sum256([]byte(Canonical(rec, doc)))
	return models.Digest(hex.EncodeToString(sum[:]))
}

// Verify recomputes the commitment for the record carried by an attested
// entry and compares it against the stored line hash.
func Verify(a models.AttestedRecord) bool {
	return Seal(a.Record(), a.DocHash) == a.LineHash
}
