package e2e

import (
	"github.com/cucumber/godog"

	"sealedger/e2e/steps/audit"
	"sealedger/e2e/steps/common"
	"sealedger/e2e/steps/company"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *common.TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register company-side workflow steps
	company.RegisterSteps(ctx, tc)

	// Register auditor-side steps
	audit.RegisterSteps(ctx, tc)
}
