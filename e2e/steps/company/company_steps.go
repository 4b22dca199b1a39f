// Package company holds the submission-to-commit steps performed with the
// company role token.
package company

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"

	"sealedger/e2e/steps/common"
)

const pollInterval = 200 * time.Millisecond

// RegisterSteps wires the company-side workflow steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc *common.TestContext) {
	ctx.Step(`^the company uploads a document named "([^"]*)" containing "([^"]*)"$`, func(name, content string) error {
		tc.DocumentName = name
		tc.Document = []byte(content)
		if err := tc.DoMultipart("/submissions", tc.CompanyToken, name, tc.Document); err != nil {
			return err
		}
		if tc.LastStatus != http.StatusAccepted {
			return fmt.Errorf("upload rejected with %d: %s", tc.LastStatus, tc.LastBody)
		}
		id, err := tc.Field("id")
		if err != nil {
			return err
		}
		tc.SubmissionID = id
		return nil
	})

	ctx.Step(`^the extraction pipeline finishes$`, func() error {
		deadline := time.Now().Add(30 * time.Second)
		for time.Now().Before(deadline) {
			if err := tc.DoJSON(http.MethodGet, "/submissions/"+tc.SubmissionID, tc.CompanyToken, nil); err != nil {
				return err
			}
			done, err := tc.Field("done")
			if err == nil && done == "true" {
				return nil
			}
			time.Sleep(pollInterval)
		}
		return fmt.Errorf("pipeline did not finish in time: %s", tc.LastBody)
	})

	ctx.Step(`^the company sets the record fields:$`, func(table *godog.Table) error {
		record := map[string]string{}
		for _, row := range table.Rows {
			if len(row.Cells) != 2 {
				return fmt.Errorf("record table rows need two cells")
			}
			record[row.Cells[0].Value] = row.Cells[1].Value
		}
		return tc.DoJSON(http.MethodPut, "/submissions/"+tc.SubmissionID+"/record", tc.CompanyToken, record)
	})

	ctx.Step(`^the company requests an advisory score$`, func() error {
		return tc.DoJSON(http.MethodPost, "/submissions/"+tc.SubmissionID+"/score", tc.CompanyToken, nil)
	})

	ctx.Step(`^the company commits the submission$`, func() error {
		if err := tc.DoJSON(http.MethodPost, "/submissions/"+tc.SubmissionID+"/commit", tc.CompanyToken, nil); err != nil {
			return err
		}
		if tc.LastStatus == http.StatusOK {
			tx, err := tc.Field("tx_hash")
			if err != nil {
				return err
			}
			tc.TxHash = tx
		}
		return nil
	})

	ctx.Step(`^the company lists its attested records$`, func() error {
		return tc.DoJSON(http.MethodGet, "/ledger/records", tc.CompanyToken, nil)
	})

	// The server keeps its ledger across scenarios, so steps target the most
	// recently committed record rather than asserting absolute counts.
	ctx.Step(`^the company locates its latest attested record$`, func() error {
		if err := tc.DoJSON(http.MethodGet, "/ledger/records", tc.CompanyToken, nil); err != nil {
			return err
		}
		var payload struct {
			Records []json.RawMessage `json:"records"`
		}
		if err := json.Unmarshal(tc.LastBody, &payload); err != nil {
			return fmt.Errorf("records response is not JSON: %w", err)
		}
		if len(payload.Records) == 0 {
			return fmt.Errorf("no attested records on the ledger")
		}
		tc.RecordIndex = len(payload.Records) - 1
		return nil
	})

	ctx.Step(`^the company assigns the configured auditor to the last record$`, func() error {
		path := fmt.Sprintf("/ledger/records/%d/auditor", tc.RecordIndex)
		return tc.DoJSON(http.MethodPost, path, tc.CompanyToken, map[string]string{"auditor": tc.AuditorAddr})
	})
}
