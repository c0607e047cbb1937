package views

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	PUT(path string, body interface{}) error
	GET(path string) error
	DELETE(path string) error
	GetResponseField(field string) (interface{}, error)
	SaveView(kind string) error
	ViewID(kind string) (string, error)
}

const (
	discoveryView = "discovery"
	detailsView   = "details"
)

// RegisterSteps registers discovery and details view step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &viewSteps{tc: tc}

	// Discovery steps
	ctx.Step(`^I open a discovery view$`, steps.openDiscovery)
	ctx.Step(`^I browse countries by (region|language) "([^"]*)"$`, steps.browseBy)
	ctx.Step(`^I search for "([^"]*)"$`, steps.search)
	ctx.Step(`^I type "([^"]*)" into the search box$`, steps.typeInSearchBox)
	ctx.Step(`^I load more countries$`, steps.loadMore)
	ctx.Step(`^I reload the discovery view$`, steps.reloadDiscovery)
	ctx.Step(`^every listed country should be in region "([^"]*)"$`, steps.everyCountryInRegion)

	// Details steps
	ctx.Step(`^I open the details view for "([^"]*)"$`, steps.openDetails)
	ctx.Step(`^I navigate the details view to "([^"]*)"$`, steps.navigateDetails)
	ctx.Step(`^I ask the assistant "([^"]*)"$`, steps.ask)
	ctx.Step(`^I close the (discovery|details) view$`, steps.closeView)
	ctx.Step(`^I fetch the (discovery|details) view$`, steps.fetchView)
}

type viewSteps struct {
	tc TestContext
}

type modeBody struct {
	Mode  string `json:"mode"`
	Value string `json:"value"`
}

type textBody struct {
	Text string `json:"text"`
}

func (s *viewSteps) path(kind, suffix string) (string, error) {
	id, err := s.tc.ViewID(kind)
	if err != nil {
		return "", err
	}
	return "/views/" + kind + "/" + id + suffix, nil
}

func (s *viewSteps) openDiscovery(ctx context.Context) error {
	if err := s.tc.POST("/views/discovery?wait=true", nil); err != nil {
		return err
	}
	return s.tc.SaveView(discoveryView)
}

func (s *viewSteps) browseBy(ctx context.Context, mode, value string) error {
	path, err := s.path(discoveryView, "/mode?wait=true")
	if err != nil {
		return err
	}
	return s.tc.PUT(path, modeBody{Mode: mode, Value: value})
}

func (s *viewSteps) search(ctx context.Context, text string) error {
	path, err := s.path(discoveryView, "/submit?wait=true")
	if err != nil {
		return err
	}
	return s.tc.POST(path, textBody{Text: text})
}

func (s *viewSteps) typeInSearchBox(ctx context.Context, text string) error {
	path, err := s.path(discoveryView, "/input")
	if err != nil {
		return err
	}
	return s.tc.POST(path, textBody{Text: text})
}

func (s *viewSteps) loadMore(ctx context.Context) error {
	path, err := s.path(discoveryView, "/more?wait=true")
	if err != nil {
		return err
	}
	return s.tc.POST(path, nil)
}

func (s *viewSteps) reloadDiscovery(ctx context.Context) error {
	return s.fetchView(ctx, discoveryView)
}

func (s *viewSteps) everyCountryInRegion(ctx context.Context, region string) error {
	value, err := s.tc.GetResponseField("view.countries")
	if err != nil {
		return err
	}
	countries, ok := value.([]interface{})
	if !ok {
		return fmt.Errorf("view.countries is not an array")
	}
	for _, c := range countries {
		entry, _ := c.(map[string]interface{})
		if got := fmt.Sprint(entry["region"]); got != region {
			return fmt.Errorf("country %v is in region %q, want %q", entry["cca3"], got, region)
		}
	}
	return nil
}

func (s *viewSteps) openDetails(ctx context.Context, code string) error {
	if err := s.tc.POST("/views/details?wait=true", map[string]string{"code": code}); err != nil {
		return err
	}
	return s.tc.SaveView(detailsView)
}

func (s *viewSteps) navigateDetails(ctx context.Context, code string) error {
	path, err := s.path(detailsView, "/subject?wait=true")
	if err != nil {
		return err
	}
	return s.tc.PUT(path, map[string]string{"code": code})
}

func (s *viewSteps) ask(ctx context.Context, question string) error {
	path, err := s.path(detailsView, "/chat")
	if err != nil {
		return err
	}
	return s.tc.POST(path, map[string]string{"question": question})
}

func (s *viewSteps) closeView(ctx context.Context, kind string) error {
	path, err := s.path(kind, "")
	if err != nil {
		return err
	}
	return s.tc.DELETE(path)
}

func (s *viewSteps) fetchView(ctx context.Context, kind string) error {
	path, err := s.path(kind, "")
	if err != nil {
		return err
	}
	return s.tc.GET(path)
}
