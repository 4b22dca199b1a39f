// Package credibility integrates the scoring collaborator. The workflow
// calls it twice with different binding semantics: once after prefill for an
// advisory, user-facing number, and once immediately before the ledger write
// for the value that is actually committed. The binding call is always a
// fresh evaluation — the user may have edited the record since the advisory.
package credibility

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"sealedger/internal/attest/models"
	dErrors "sealedger/pkg/domain-errors"
)

// Score bounds. The collaborator contract is a number in [0,100]; anything
// outside is treated as a malformed response.
const (
	MinScore = 0
	MaxScore = 100
)

//go:generate mockgen -destination=../../mocks/mockcredibility/scorer.go -package=mockcredibility sealedger/internal/credibility Scorer

// Scorer is what the workflow depends on; the HTTP client below is the
// production implementation.
type Scorer interface {
	Score(ctx context.Context, rawText string, rec models.ExtractedRecord) (int, error)
}

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

type scoreRequest struct {
	Invoice       string                 `json:"invoice"`
	AccountingRow models.ExtractedRecord `json:"accounting_row"`
}

type scoreResponse struct {
	Credibility *float64 `json:"credibility"`
}

// Score submits (raw text, structured record) and returns the collaborator's
// trust score. Failures are ScoringError — non-fatal to the workflow, which
// leaves the score unset.
func (c *Client) Score(ctx context.Context, rawText string, rec models.ExtractedRecord) (int, error) {
	payload, err := json.Marshal(scoreRequest{Invoice: rawText, AccountingRow: rec})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeScoring, "marshal scoring request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeScoring, "build scoring request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, dErrors.Wrap(err, dErrors.CodeTimeout, "credibility collaborator timed out")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeScoring, "call credibility collaborator")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, dErrors.Newf(dErrors.CodeScoring, "credibility collaborator responded %d", resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeScoring, "decode scoring response")
	}
	if out.Credibility == nil {
		return 0, dErrors.New(dErrors.CodeScoring, "scoring response missing credibility")
	}
	score := int(*out.Credibility)
	if score < MinScore || score > MaxScore {
		return 0, dErrors.Newf(dErrors.CodeScoring, "credibility %d out of range", score)
	}
	return score, nil
}
