package contact

import "github.com/cucumber/godog"

// TestContext is the slice of the harness these steps need.
type TestContext interface {
	POST(path string, body interface{}) error
	Email() string
}

// RegisterSteps wires the contact form steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &contactSteps{tc: tc}

	ctx.Step(`^I submit a contact form with subject "([^"]*)"$`, steps.submitContactForm)
	ctx.Step(`^I submit a contact form without a message$`, steps.submitWithoutMessage)
}

type contactSteps struct {
	tc TestContext
}

func (s *contactSteps) submitContactForm(subject string) error {
	return s.tc.POST("/api/contact", map[string]interface{}{
		"name":    "E2E Tester",
		"email":   s.tc.Email(),
		"subject": subject,
		"message": "This is an end-to-end test submission.",
	})
}

func (s *contactSteps) submitWithoutMessage() error {
	return s.tc.POST("/api/contact", map[string]interface{}{
		"name":    "E2E Tester",
		"email":   s.tc.Email(),
		"subject": "Missing message",
	})
}
