package common

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the harness these steps need.
type TestContext interface {
	GET(path string, headers map[string]string) error
	LastStatus() int
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps wires the generic request/assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is running$`, steps.serviceIsRunning)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response should contain field "([^"]*)"$`, steps.responseShouldContainField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning() error {
	if err := s.tc.GET("/", nil); err != nil {
		return fmt.Errorf("service not reachable: %w", err)
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("health endpoint returned %d", s.tc.LastStatus())
	}
	return nil
}

func (s *commonSteps) responseStatusShouldBe(expected int) error {
	if s.tc.LastStatus() != expected {
		return fmt.Errorf("expected status %d, got %d", expected, s.tc.LastStatus())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", value) != expected {
		return fmt.Errorf("expected field %q to equal %q, got %v", field, expected, value)
	}
	return nil
}

func (s *commonSteps) responseShouldContainField(field string) error {
	_, err := s.tc.GetResponseField(field)
	return err
}
