package types

import "time"

// Timing holds the per-operation budgets used by step runners.
type Timing struct {
	InputTimeout         time.Duration
	ClickTimeout         time.Duration
	OptionalClickTimeout time.Duration
	ChallengeTimeout     time.Duration
	KeystrokeDelay       time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		InputTimeout:         5 * time.Second,
		ClickTimeout:         5 * time.Second,
		OptionalClickTimeout: 2 * time.Second,
		ChallengeTimeout:     5 * time.Second,
		KeystrokeDelay:       50 * time.Millisecond,
	}
}

// ExecutionContext contains everything a step runner needs. Step.Value has
// already been resolved when a runner sees it.
type ExecutionContext struct {
	Step        Step
	Logger      Logger
	Driver      Driver
	Oracle      Oracle
	Captcha     CaptchaResolver
	Coordinates map[string]string
	Artifacts   Artifacts
	Key         ArtifactKey
	Timing      Timing

	// OracleFallback lets the captcha runner ask the oracle to read a captcha
	// the resolver could not solve.
	OracleFallback bool
}
