package runners

import (
	"context"
	"fmt"
	"strings"

	"github.com/orviagent/orvi/pkg/steprunner"
	"github.com/orviagent/orvi/pkg/types"
)

type NavigateRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory(types.KindNavigate, func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &NavigateRunner{
			StepCtx: ctx,
		}, nil
	})
}

// url prefers the target and falls back to the resolved value.
func (nr *NavigateRunner) url() string {
	if nr.StepCtx.Step.Target != "" {
		return nr.StepCtx.Step.Target
	}
	return nr.StepCtx.Step.Value
}

func (nr *NavigateRunner) Validate() error {
	if nr.url() == "" {
		return fmt.Errorf("navigate step must define 'target' or 'value'")
	}
	return nil
}

// Run reloads when the browser is already on the URL so transient widgets such
// as captchas are reset.
func (nr *NavigateRunner) Run(ctx context.Context) error {
	if err := nr.Validate(); err != nil {
		return err
	}

	driver := nr.StepCtx.Driver
	logger := nr.StepCtx.Logger
	url := nr.url()

	current, err := driver.CurrentLocation(ctx)
	if err != nil {
		return fmt.Errorf("reading current location: %w", err)
	}

	if strings.TrimRight(current, "/") == strings.TrimRight(url, "/") {
		logger.Debug().Str("url", url).Msg("Already on page, reloading")
		if err := driver.Reload(ctx); err != nil {
			return fmt.Errorf("reloading %q: %w", url, err)
		}
		return nil
	}

	logger.Debug().Str("url", url).Msg("Navigating")
	if err := driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigating to %q: %w", url, err)
	}
	return nil
}
