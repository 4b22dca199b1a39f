// Package models holds the entities of the attestation workflow: the
// structured record extracted from a document, the record as committed to the
// ledger, and the audit lifecycle vocabulary.
package models

import (
	"strings"

	dErrors "sealedger/pkg/domain-errors"
)

// Digest is a lower-case hex SHA-256 digest. Used both for document
// fingerprints and for line commitments.
type Digest string

func (d Digest) IsZero() bool { return d == "" }

func (d Digest) String() string { return string(d) }

// ExtractedRecord is the structured accounting row derived from a document.
// It is mutable by the submitting user until commit; amounts travel as strings
// because that is the contract's wire shape, but are validated as non-negative
// decimals before commit.
type ExtractedRecord struct {
	InvoiceNumber string `json:"invoice_number"`
	Date          string `json:"date"`
	ClientName    string `json:"client_name"`
	Description   string `json:"description"`
	TotalAmount   string `json:"total_amount"`
	TaxAmount     string `json:"tax_amount"`
	Currency      string `json:"currency"`
}

// Validate checks the record is commit-ready. Amount fields must be
// non-negative decimal values; everything else is free-form (the auditor, not
// the gateway, judges content).
func (r ExtractedRecord) Validate() error {
	if err := validateAmount("total_amount", r.TotalAmount); err != nil {
		return err
	}
	if err := validateAmount("tax_amount", r.TaxAmount); err != nil {
		return err
	}
	return nil
}

// validateAmount accepts unsigned decimal strings such as "1000" or "100.50".
// Scientific notation, signs and empty strings are rejected: the value is
// hashed verbatim into the line commitment, so only the plainest form is
// allowed on the wire.
func validateAmount(field, v string) error {
	if v == "" {
		return dErrors.Newf(dErrors.CodeValidation, "%s must not be empty", field)
	}
	dot := false
	for i, c := range v {
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !dot && i > 0 && i < len(v)-1:
			dot = true
		default:
			return dErrors.Newf(dErrors.CodeValidation, "%s is not a non-negative decimal: %q", field, v)
		}
	}
	return nil
}

// AuditState is the lifecycle state of an attested record.
type AuditState string

const (
	// AuditRequested is the implicit initial state set at commit time.
	AuditRequested AuditState = "requested"
	// AuditApproved, AuditFlagged and AuditCorrectionRequested are auditor
	// dispositions. Whether they are terminal is a policy decision of the
	// audit service, not a property of the vocabulary.
	AuditApproved            AuditState = "approve"
	AuditFlagged             AuditState = "flagged"
	AuditCorrectionRequested AuditState = "correction_requested"
)

var validAuditStates = map[AuditState]bool{
	AuditRequested:           true,
	AuditApproved:            true,
	AuditFlagged:             true,
	AuditCorrectionRequested: true,
}

// ParseAuditState constructs an AuditState from external input.
func ParseAuditState(s string) (AuditState, error) {
	st := AuditState(strings.TrimSpace(s))
	if !validAuditStates[st] {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown audit state: %q", s)
	}
	return st, nil
}

// IsDisposition reports whether the state is an auditor disposition rather
// than the initial request state.
func (s AuditState) IsDisposition() bool {
	return validAuditStates[s] && s != AuditRequested
}

// AttestedRecord is the ledger entity created once per commit. Immutable
// fields are fixed at creation; Auditors and AuditState are the only fields
// mutated afterwards, exclusively through privileged transactions.
type AttestedRecord struct {
	InvoiceNumber string     `json:"invoice_number"`
	Date          string     `json:"date"`
	ClientName    string     `json:"client_name"`
	Description   string     `json:"description"`
	TotalAmount   string     `json:"total_amount"`
	TaxAmount     string     `json:"tax_amount"`
	Currency      string     `json:"currency"`
	DocHash       Digest     `json:"doc_hash"`
	LineHash      Digest     `json:"line_hash"`
	Auditors      string     `json:"auditors"`
	Credibility   string     `json:"credibility"`
	AuditState    AuditState `json:"audit_state"`
	TxHash        string     `json:"tx_hash,omitempty"`
}

// Record projects the attested entity back onto its mutable extraction shape,
// used when re-deriving the line commitment during integrity checks.
func (a AttestedRecord) Record() ExtractedRecord {
	return ExtractedRecord{
		InvoiceNumber: a.InvoiceNumber,
		Date:          a.Date,
		ClientName:    a.ClientName,
		Description:   a.Description,
		TotalAmount:   a.TotalAmount,
		TaxAmount:     a.TaxAmount,
		Currency:      a.Currency,
	}
}
