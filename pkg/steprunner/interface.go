package steprunner

import "context"

type StepRunner interface {
	Validate() error
	Run(ctx context.Context) error
}
