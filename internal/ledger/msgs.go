package ledger

import (
	"strconv"

	"sealedger/internal/attest/models"
	"sealedger/internal/permit"
	dErrors "sealedger/pkg/domain-errors"
)

// contractInvoice is the invoice entity as the contract stores it. Every
// field travels as a string; this is the contract's wire shape, not ours to
// change.
type contractInvoice struct {
	InvoiceNumber string `json:"invoice_number"`
	Date          string `json:"date"`
	ClientName    string `json:"client_name"`
	Description   string `json:"description"`
	TotalAmount   string `json:"total_amount"`
	TaxAmount     string `json:"tax_amount"`
	Currency      string `json:"currency"`
	DocHash       string `json:"doc_hash"`
	LineHash      string `json:"line_hash"`
	Auditors      string `json:"auditors"`
	Credibility   string `json:"credibility"`
	AuditState    string `json:"audit_state"`
}

// Execute message envelope. Exactly one branch is set per message.
type executeMsg struct {
	Add           *addMsg           `json:"add,omitempty"`
	UpdateAuditor *updateAuditorMsg `json:"update_auditor,omitempty"`
	SetAuditState *setAuditStateMsg `json:"set_audit_state,omitempty"`
}

type addMsg struct {
	Invoice contractInvoice `json:"invoice"`
}

type updateAuditorMsg struct {
	InvoiceIndex uint8  `json:"invoice_index"`
	Auditor      string `json:"auditor"`
}

type setAuditStateMsg struct {
	InvoiceIndex uint8  `json:"invoice_index"`
	State        string `json:"state"`
}

// Query message envelope.
type queryMsg struct {
	GetAll *getAllQuery `json:"get_all,omitempty"`
}

type getAllQuery struct {
	Wallet string        `json:"wallet"`
	Permit permit.Permit `json:"permit"`
	Index  uint8         `json:"index"`
}

type invoiceListResponse struct {
	VectInvoice []contractInvoice `json:"vect_invoice"`
}

func toContractInvoice(rec models.ExtractedRecord, doc, line models.Digest, score int) contractInvoice {
	return contractInvoice{
		InvoiceNumber: rec.InvoiceNumber,
		Date:          rec.Date,
		ClientName:    rec.ClientName,
		Description:   rec.Description,
		TotalAmount:   rec.TotalAmount,
		TaxAmount:     rec.TaxAmount,
		Currency:      rec.Currency,
		DocHash:       doc.String(),
		LineHash:      line.String(),
		Auditors:      "",
		Credibility:   strconv.Itoa(score),
		AuditState:    string(models.AuditRequested),
	}
}

// fromContractInvoice validates the untyped contract response into the
// strongly-typed entity. Shape violations become QueryError rather than
// propagating malformed data into the workflow.
func fromContractInvoice(ci contractInvoice) (models.AttestedRecord, error) {
	if ci.DocHash == "" || ci.LineHash == "" {
		return models.AttestedRecord{}, dErrors.New(dErrors.CodeQuery, "ledger returned record without commitment hashes")
	}
	state, err := models.ParseAuditState(ci.AuditState)
	if err != nil {
		return models.AttestedRecord{}, dErrors.Newf(dErrors.CodeQuery, "ledger returned unknown audit state %q", ci.AuditState)
	}
	return models.AttestedRecord{
		InvoiceNumber: ci.InvoiceNumber,
		Date:          ci.Date,
		ClientName:    ci.ClientName,
		Description:   ci.Description,
		TotalAmount:   ci.TotalAmount,
		TaxAmount:     ci.TaxAmount,
		Currency:      ci.Currency,
		DocHash:       models.Digest(ci.DocHash),
		LineHash:      models.Digest(ci.LineHash),
		Auditors:      ci.Auditors,
		Credibility:   ci.Credibility,
		AuditState:    state,
	}, nil
}

// gasLimitExecute matches the broadcast gas limit the product has always
// used for contract executions.
const gasLimitExecute = 200_000
