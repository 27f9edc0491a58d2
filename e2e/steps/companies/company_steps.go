package companies

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path string, body any, auth bool) error
}

// RegisterSteps registers company lookup step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &companySteps{tc: tc}

	ctx.Step(`^I look up company "([^"]*)"$`, steps.lookup)
	ctx.Step(`^I list companies$`, steps.list)
	ctx.Step(`^I create company "([^"]*)" named "([^"]*)"$`, steps.create)
}

type companySteps struct {
	tc TestContext
}

func (s *companySteps) lookup(_ context.Context, taxID string) error {
	return s.tc.Do(http.MethodGet, "/api/companies/"+url.PathEscape(taxID), nil, true)
}

func (s *companySteps) list(context.Context) error {
	return s.tc.Do(http.MethodGet, "/api/companies", nil, true)
}

func (s *companySteps) create(_ context.Context, taxID, name string) error {
	return s.tc.Do(http.MethodPost, "/api/companies", map[string]string{
		"cnpj":        taxID,
		"razaoSocial": name,
	}, true)
}
