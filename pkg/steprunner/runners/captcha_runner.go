package runners

import (
	"context"
	"fmt"
	"strings"

	"github.com/orviagent/orvi/pkg/captcha"
	"github.com/orviagent/orvi/pkg/steprunner"
	"github.com/orviagent/orvi/pkg/types"
)

// CaptchaRunner reads the captcha image named by Value and fills the solved
// text into Target.
type CaptchaRunner struct {
	StepCtx types.ExecutionContext
}

func init() {
	steprunner.RegisterRunnerFactory(types.KindCaptcha, func(ctx types.ExecutionContext) (steprunner.StepRunner, error) {
		return &CaptchaRunner{
			StepCtx: ctx,
		}, nil
	})
}

func (cr *CaptchaRunner) Validate() error {
	step := cr.StepCtx.Step
	if step.Value == "" {
		return fmt.Errorf("captcha step must define 'value' (captcha image selector)")
	}
	if step.Target == "" {
		return fmt.Errorf("captcha step must define 'target' (answer field)")
	}
	return nil
}

func (cr *CaptchaRunner) Run(ctx context.Context) error {
	if err := cr.Validate(); err != nil {
		return err
	}

	step := cr.StepCtx.Step
	driver := cr.StepCtx.Driver
	logger := cr.StepCtx.Logger

	visible, err := driver.IsVisible(ctx, step.Value)
	if err != nil {
		return fmt.Errorf("checking captcha %q: %w", step.Value, err)
	}
	if !visible {
		logger.Info().Str("selector", step.Value).Msg("Captcha not present, skipping")
		return nil
	}
	if cr.StepCtx.Captcha == nil {
		return fmt.Errorf("captcha step requires a captcha resolver")
	}

	rawPath := cr.artifactPath(types.ArtifactCaptcha)
	if err := driver.ScreenshotElement(ctx, step.Value, rawPath); err != nil {
		return fmt.Errorf("capturing captcha %q: %w", step.Value, err)
	}
	cr.StepCtx.Artifacts.Record(rawPath)

	imagePath := cr.artifactPath(types.ArtifactCaptchaClean)
	if err := captcha.Preprocess(rawPath, imagePath); err != nil {
		logger.Warn().Err(err).Msg("Captcha filter failed, sending raw crop")
		imagePath = rawPath
	} else {
		cr.StepCtx.Artifacts.Record(imagePath)
	}

	text, err := cr.StepCtx.Captcha.Solve(ctx, imagePath)
	if err != nil {
		logger.Warn().Err(err).Msg("Captcha resolver failed")
		text = ""
	}
	text = strings.TrimSpace(text)

	if text == "" && cr.StepCtx.OracleFallback && cr.StepCtx.Oracle != nil {
		logger.Info().Msg("Captcha resolver returned nothing, asking oracle")
		fallback, err := cr.StepCtx.Oracle.ExtractText(ctx, imagePath)
		if err != nil {
			logger.Warn().Err(err).Msg("Oracle text extraction failed")
		}
		text = strings.TrimSpace(fallback)
	}

	if text == "" {
		return fmt.Errorf("%w: no text recovered from %q", types.ErrCaptchaUnsolved, step.Value)
	}

	logger.Info().Str("target", step.Target).Msg("Captcha solved")
	if err := driver.Fill(ctx, step.Target, text); err != nil {
		return fmt.Errorf("filling captcha answer into %q: %w", step.Target, err)
	}
	return nil
}

func (cr *CaptchaRunner) artifactPath(kind string) string {
	key := cr.StepCtx.Key
	key.Kind = kind
	return cr.StepCtx.Artifacts.Path(key)
}
