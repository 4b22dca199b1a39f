package common

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps wires the generic response assertions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the response status should be (\d+)$`, func(status int) error {
		if tc.LastStatus != status {
			return fmt.Errorf("expected status %d, got %d (body: %s)", status, tc.LastStatus, tc.LastBody)
		}
		return nil
	})

	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, func(field, want string) error {
		got, err := tc.Field(field)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("expected field %q to be %q, got %q", field, want, got)
		}
		return nil
	})

	ctx.Step(`^the response field "([^"]*)" should not be empty$`, func(field string) error {
		got, err := tc.Field(field)
		if err != nil {
			return err
		}
		if strings.TrimSpace(got) == "" {
			return fmt.Errorf("expected field %q to be set", field)
		}
		return nil
	})

	ctx.Step(`^the response error should be "([^"]*)"$`, func(code string) error {
		got, err := tc.Field("error")
		if err != nil {
			return err
		}
		if got != code {
			return fmt.Errorf("expected error %q, got %q (body: %s)", code, got, tc.LastBody)
		}
		return nil
	})
}
