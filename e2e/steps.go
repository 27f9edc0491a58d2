package e2e

import (
	"github.com/cucumber/godog"

	"cadastro/e2e/steps/auth"
	"cadastro/e2e/steps/common"
	"cadastro/e2e/steps/companies"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	companies.RegisterSteps(ctx, tc)
}
