package e2e

import (
	"github.com/cucumber/godog"

	"worldfolio/e2e/steps/common"
	"worldfolio/e2e/steps/session"
	"worldfolio/e2e/steps/views"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register sign-in and session steps
	session.RegisterSteps(ctx, tc)

	// Register discovery and details view steps
	views.RegisterSteps(ctx, tc)
}
