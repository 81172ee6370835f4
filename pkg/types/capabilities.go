package types

import (
	"context"
	"time"
)

// Driver executes primitive actions against one live browser session.
// Implementations must be used by a single mission at a time.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentLocation(ctx context.Context) (string, error)
	Reload(ctx context.Context) error
	WaitForVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	// Clear empties a field with a select-all + delete gesture.
	Clear(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	Type(ctx context.Context, selector, text string, perChar time.Duration) error
	ReadText(ctx context.Context, selector string) (string, error)
	IsVisible(ctx context.Context, selector string) (bool, error)
	Screenshot(ctx context.Context, path string) error
	ScreenshotElement(ctx context.Context, selector, path string) error
	Close() error
}

// DriverFactory acquires a fresh browser session for one mission.
type DriverFactory interface {
	Open(ctx context.Context) (Driver, error)
}

// Verdict is the oracle's answer to a natural-language condition.
type Verdict struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// Oracle judges screenshots with a vision model.
type Oracle interface {
	Validate(ctx context.Context, imagePath, condition string) (Verdict, error)
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// CaptchaResolver recognizes the text in a captcha image. An empty string
// means the captcha was not solved.
type CaptchaResolver interface {
	Solve(ctx context.Context, imagePath string) (string, error)
}

// Artifact kinds used in generated file names.
const (
	ArtifactCaptcha      = "captcha"
	ArtifactCaptchaClean = "captcha_clean"
	ArtifactValidation   = "validation"
	ArtifactFinal        = "final"
)

// ArtifactKey identifies where in a mission an artifact was generated.
type ArtifactKey struct {
	Sequence int
	Attempt  int
	Poll     int
	Kind     string
}

// Artifacts hands out unique artifact paths and remembers the files that were
// actually written, in generation order.
type Artifacts interface {
	Path(key ArtifactKey) string
	Record(path string)
}
