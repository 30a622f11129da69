package auth

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the harness these steps need.
type TestContext interface {
	POST(path string, body interface{}) error
	POSTWithHeaders(path string, body interface{}, headers map[string]string) error
	PUT(path string, body interface{}, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	Email() string
	Password() string
	AccessToken() string
	SetAccessToken(token string)
	AuthHeader() map[string]string
}

// RegisterSteps wires the account lifecycle steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I sign up with a fresh account$`, steps.signupFresh)
	ctx.Step(`^I sign up with the same email again$`, steps.signupSameEmail)
	ctx.Step(`^I save the access token$`, steps.saveAccessToken)
	ctx.Step(`^I log in with my credentials$`, steps.loginValid)
	ctx.Step(`^I log in with password "([^"]*)"$`, steps.loginWithPassword)
	ctx.Step(`^I request my profile$`, steps.requestProfile)
	ctx.Step(`^I request my profile without a token$`, steps.requestProfileNoToken)
	ctx.Step(`^I request my profile with token "([^"]*)"$`, steps.requestProfileWithToken)
	ctx.Step(`^I update my company to "([^"]*)"$`, steps.updateCompany)
	ctx.Step(`^I log out$`, steps.logout)
	ctx.Step(`^my email should be returned$`, steps.emailReturned)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) signupFresh() error {
	return s.tc.POST("/api/auth/signup", map[string]interface{}{
		"email":     s.tc.Email(),
		"password":  s.tc.Password(),
		"full_name": "E2E Tester",
	})
}

func (s *authSteps) signupSameEmail() error {
	return s.signupFresh()
}

func (s *authSteps) saveAccessToken() error {
	token, err := s.tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	str, ok := token.(string)
	if !ok || str == "" {
		return fmt.Errorf("access_token is not a non-empty string: %v", token)
	}
	s.tc.SetAccessToken(str)
	return nil
}

func (s *authSteps) loginValid() error {
	return s.loginWithPassword(s.tc.Password())
}

func (s *authSteps) loginWithPassword(password string) error {
	return s.tc.POST("/api/auth/login", map[string]interface{}{
		"email":    s.tc.Email(),
		"password": password,
	})
}

func (s *authSteps) requestProfile() error {
	return s.tc.GET("/api/auth/me", s.tc.AuthHeader())
}

func (s *authSteps) requestProfileNoToken() error {
	return s.tc.GET("/api/auth/me", nil)
}

func (s *authSteps) requestProfileWithToken(token string) error {
	return s.tc.GET("/api/auth/me", map[string]string{
		"Authorization": "Bearer " + token,
	})
}

func (s *authSteps) updateCompany(company string) error {
	return s.tc.PUT("/api/auth/profile", map[string]interface{}{
		"company": company,
	}, s.tc.AuthHeader())
}

func (s *authSteps) logout() error {
	return s.tc.POSTWithHeaders("/api/auth/logout", struct{}{}, s.tc.AuthHeader())
}

func (s *authSteps) emailReturned() error {
	email, err := s.tc.GetResponseField("email")
	if err != nil {
		return err
	}
	if email != s.tc.Email() {
		return fmt.Errorf("expected email %q, got %v", s.tc.Email(), email)
	}
	return nil
}
