package e2e

import (
	"github.com/cucumber/godog"

	"zolo-auth/e2e/steps/auth"
	"zolo-auth/e2e/steps/common"
	"zolo-auth/e2e/steps/contact"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	contact.RegisterSteps(ctx, tc)
}
