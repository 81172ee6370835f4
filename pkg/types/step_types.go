package types

import "time"

// StepKind names the primitive action a step performs.
type StepKind string

const (
	KindNavigate     StepKind = "navigate"
	KindInput        StepKind = "input"
	KindClick        StepKind = "click"
	KindWait         StepKind = "wait"
	KindCaptcha      StepKind = "captcha"
	KindDynamicInput StepKind = "dynamic_input"
)

// KnownKinds lists every kind the interpreter dispatches on.
var KnownKinds = []StepKind{KindNavigate, KindInput, KindClick, KindWait, KindCaptcha, KindDynamicInput}

func (k StepKind) Known() bool {
	for _, known := range KnownKinds {
		if k == known {
			return true
		}
	}
	return false
}

const (
	DefaultPostDelay    = time.Second
	DefaultPollAttempts = 3
	DefaultPollDelay    = 5 * time.Second
)

// Step is one primitive instruction inside a sequence.
type Step struct {
	Kind            StepKind    `json:"kind" yaml:"kind" jsonschema:"required"`
	Target          string      `json:"target,omitempty" yaml:"target,omitempty"`                       // selector acted upon (or URL for navigate)
	Value           string      `json:"value,omitempty" yaml:"value,omitempty"`                         // literal or env:NAME; selector to read for captcha/dynamic_input
	PostDelay       *Duration   `json:"post_delay,omitempty" yaml:"post_delay,omitempty"`               // defaults to 1s
	Optional        bool        `json:"optional,omitempty" yaml:"optional,omitempty"`                   // failures degrade to a warning
	LookupKeySource string      `json:"lookup_key_source,omitempty" yaml:"lookup_key_source,omitempty"` // (dynamic_input) name of the lookup table
	Validation      *Validation `json:"validation,omitempty" yaml:"validation,omitempty"`               // visual confirmation after the attempt's steps
}

// Delay returns the post-step delay, applying the default when unset.
func (s Step) Delay() time.Duration {
	if s.PostDelay == nil {
		return DefaultPostDelay
	}
	return s.PostDelay.Std()
}

// Validation asks the oracle to confirm a natural-language condition on a screenshot.
type Validation struct {
	Condition    string    `json:"condition" yaml:"condition" jsonschema:"required"`
	PollAttempts int       `json:"poll_attempts,omitempty" yaml:"poll_attempts,omitempty"`
	PollDelay    *Duration `json:"poll_delay,omitempty" yaml:"poll_delay,omitempty"`
}

func (v Validation) Polls() int {
	if v.PollAttempts <= 0 {
		return DefaultPollAttempts
	}
	return v.PollAttempts
}

func (v Validation) Delay() time.Duration {
	if v.PollDelay == nil {
		return DefaultPollDelay
	}
	return v.PollDelay.Std()
}

// Sequence is a named, ordered list of steps retried as a unit.
type Sequence struct {
	Title                string   `json:"title" yaml:"title" jsonschema:"required"`
	MaxAttempts          int      `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	SuccessTarget        string   `json:"success_target,omitempty" yaml:"success_target,omitempty"`
	SuccessTargetTimeout Duration `json:"success_target_timeout,omitempty" yaml:"success_target_timeout,omitempty"`
	Steps                []Step   `json:"steps" yaml:"steps" jsonschema:"required"`
}

// Attempts returns max_attempts, never less than one.
func (s Sequence) Attempts() int {
	if s.MaxAttempts < 1 {
		return 1
	}
	return s.MaxAttempts
}

// ValidationStep returns the first step carrying a validation instruction, if any.
func (s Sequence) ValidationStep() (*Validation, bool) {
	for _, step := range s.Steps {
		if step.Validation != nil {
			return step.Validation, true
		}
	}
	return nil, false
}

// Mission is a single execution request: sequences run in order plus the
// coordinate card used by dynamic_input steps. It is never persisted.
type Mission struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Sequences   []Sequence        `json:"sequences" yaml:"sequences" jsonschema:"required"`
	Coordinates map[string]string `json:"coordinates" yaml:"coordinates,omitempty"`
}
