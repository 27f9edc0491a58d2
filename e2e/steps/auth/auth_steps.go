package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path string, body any, auth bool) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	SetAccessToken(token string)
}

// RegisterSteps registers authentication-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I am logged in as "([^"]*)" with password "([^"]*)"$`, steps.loggedIn)
	ctx.Step(`^I log out$`, steps.logout)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) login(_ context.Context, email, password string) error {
	return s.tc.Do(http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, false)
}

func (s *authSteps) loggedIn(ctx context.Context, email, password string) error {
	if err := s.login(ctx, email, password); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusOK {
		return fmt.Errorf("login failed with status %d", status)
	}
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	tokenStr, ok := token.(string)
	if !ok || tokenStr == "" {
		return fmt.Errorf("login response carried no token")
	}
	s.tc.SetAccessToken(tokenStr)
	return nil
}

func (s *authSteps) logout(context.Context) error {
	return s.tc.Do(http.MethodPost, "/api/logout", nil, true)
}
