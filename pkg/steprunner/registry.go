package steprunner

import (
	"fmt"
	"sort"

	"github.com/orviagent/orvi/pkg/types"
)

type RunnerFactory func(ctx types.ExecutionContext) (StepRunner, error)

// registry stores each step kind's factory function. GetRunner calls the
// matching factory to yield a new StepRunner for one step.
var registry = map[types.StepKind]RunnerFactory{}

// RegisterRunnerFactory is called from each runner's init() function.
func RegisterRunnerFactory(kind types.StepKind, factory RunnerFactory) {
	registry[kind] = factory
}

// Registered reports whether a runner exists for kind.
func Registered(kind types.StepKind) bool {
	_, ok := registry[kind]
	return ok
}

// Kinds lists the registered step kinds in sorted order.
func Kinds() []types.StepKind {
	kinds := make([]types.StepKind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// GetRunner returns a StepRunner for the step's kind.
func GetRunner(ctx types.ExecutionContext) (StepRunner, error) {
	kind := ctx.Step.Kind
	factory, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("no runner registered for kind: %s", kind)
	}

	return factory(ctx)
}
