// Package audit holds the auditor-side steps: assigned reads, dispositions
// and document verification.
package audit

import (
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	"sealedger/e2e/steps/common"
)

// RegisterSteps wires the auditor workflow steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc *common.TestContext) {
	ctx.Step(`^the auditor lists assigned records$`, func() error {
		return tc.DoJSON(http.MethodGet, "/ledger/assigned", tc.AuditorToken, nil)
	})

	ctx.Step(`^the auditor disposes the last record as "([^"]*)"$`, func(state string) error {
		path := fmt.Sprintf("/ledger/records/%d/disposition", tc.RecordIndex)
		return tc.DoJSON(http.MethodPost, path, tc.AuditorToken, map[string]string{"state": state})
	})

	ctx.Step(`^the auditor verifies the original document against the last record$`, func() error {
		path := fmt.Sprintf("/ledger/records/%d/verify", tc.RecordIndex)
		return tc.DoRaw(http.MethodPost, path, tc.AuditorToken, tc.Document)
	})

	ctx.Step(`^the auditor verifies a forged document against the last record$`, func() error {
		path := fmt.Sprintf("/ledger/records/%d/verify", tc.RecordIndex)
		return tc.DoRaw(http.MethodPost, path, tc.AuditorToken, []byte("forged document bytes"))
	})
}
