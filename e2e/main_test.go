package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the Gherkin scenarios against a running server. Set
// WORLDFOLIO_E2E_URL (for example http://localhost:8080) to enable it.
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("WORLDFOLIO_E2E_URL")
	if baseURL == "" {
		t.Skip("WORLDFOLIO_E2E_URL not set")
	}

	suite := godog.TestSuite{
		Name: "worldfolio",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			tc := NewTestContext(baseURL)
			sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(sc, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Tags:     os.Getenv("WORLDFOLIO_E2E_TAGS"),
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
