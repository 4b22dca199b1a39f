// Package fields is the client for the field-extraction collaborator: raw
// document text in, a best-effort structured accounting record out. The
// response is schema-validated at this boundary so malformed collaborator
// output becomes ExtractionError instead of leaking into the workflow.
package fields

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"sealedger/internal/attest/models"
	dErrors "sealedger/pkg/domain-errors"
)

type Client struct {
	url   string
	httpc *http.Client
}

func NewClient(url string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{url: url, httpc: httpc}
}

type extractRequest struct {
	Data string `json:"data"`
}

// extractResponse tolerates numeric or string amounts: the collaborator has
// historically returned numbers while the ledger wire shape wants strings.
type extractResponse struct {
	InvoiceNumber string          `json:"invoice_number"`
	Date          string          `json:"date"`
	ClientName    string          `json:"client_name"`
	Description   string          `json:"description"`
	TotalAmount   json.RawMessage `json:"total_amount"`
	TaxAmount     json.RawMessage `json:"tax_amount"`
	Currency      string          `json:"currency"`
}

// ExtractFields asks the collaborator to structure the raw text.
func (c *Client) ExtractFields(ctx context.Context, text string) (models.ExtractedRecord, error) {
	if text == "" {
		return models.ExtractedRecord{}, dErrors.New(dErrors.CodeExtraction, "no text to extract fields from")
	}
	payload, err := json.Marshal(extractRequest{Data: text})
	if err != nil {
		return models.ExtractedRecord{}, dErrors.Wrap(err, dErrors.CodeExtraction, "marshal extraction request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return models.ExtractedRecord{}, dErrors.Wrap(err, dErrors.CodeExtraction, "build extraction request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.ExtractedRecord{}, dErrors.Wrap(err, dErrors.CodeTimeout, "field extraction collaborator timed out")
		}
		return models.ExtractedRecord{}, dErrors.Wrap(err, dErrors.CodeExtraction, "call field extraction collaborator")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ExtractedRecord{}, dErrors.Newf(dErrors.CodeExtraction, "field extraction collaborator responded %d", resp.StatusCode)
	}

	var out extractResponse
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&out); err != nil {
		return models.ExtractedRecord{}, dErrors.Wrap(err, dErrors.CodeExtraction, "decode extraction response")
	}

	total, err := amountString(out.TotalAmount)
	if err != nil {
		return models.ExtractedRecord{}, dErrors.Wrap(err, dErrors.CodeExtraction, "total_amount has unexpected shape")
	}
	tax, err := amountString(out.TaxAmount)
	if err != nil {
		return models.ExtractedRecord{}, dErrors.Wrap(err, dErrors.CodeExtraction, "tax_amount has unexpected shape")
	}

	return models.ExtractedRecord{
		InvoiceNumber: out.InvoiceNumber,
		Date:          out.Date,
		ClientName:    out.ClientName,
		Description:   out.Description,
		TotalAmount:   total,
		TaxAmount:     tax,
		Currency:      out.Currency,
	}, nil
}

// amountString normalizes a JSON number or string to the string wire form.
func amountString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
