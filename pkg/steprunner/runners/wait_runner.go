package runners

import (
	"context"

	"github.com/orviagent/orvi/pkg/steprunner"
	"github.com/orviagent/orvi/pkg/types"
)

// WaitRunner performs no driver action; the interpreter applies the post delay.
type WaitRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory(types.KindWait, func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &WaitRunner{
			StepCtx: ctx,
		}, nil
	})
}

func (wr *WaitRunner) Validate() error {
	return nil
}

func (wr *WaitRunner) Run(ctx context.Context) error {
	wr.StepCtx.Logger.Debug().Dur("delay", wr.StepCtx.Step.Delay()).Msg("Waiting")
	return nil
}
