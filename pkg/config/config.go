// Package config holds the process configuration injected into the engine
// and its collaborators. Values come from flags or the environment (kong env
// tags); nothing below cmd/ reads the environment for configuration.
package config

import (
	"errors"
	"strings"
)

const (
	DefaultVisionModel = "gemini-2.5-flash"
	DefaultLogSink     = ".orvi/logs/orvi.jsonl"
	DefaultArtifactDir = "screenshots"
)

// Config is embedded into each kong command that starts missions.
type Config struct {
	VisionAPIKey          string `help:"API key for the Gemini vision oracle." env:"GOOGLE_API_KEY" name:"vision-api-key"`
	VisionModel           string `help:"Gemini model used for validation and text extraction." env:"ORVI_VISION_MODEL" default:"gemini-2.5-flash"`
	CaptchaAPIKey         string `help:"anti-captcha.com API key." env:"ANTICAPTCHA_API_KEY" name:"captcha-api-key"`
	LogSink               string `help:"JSON lines log file shared by every mission." env:"ORVI_LOG_SINK" default:".orvi/logs/orvi.jsonl"`
	ArtifactDir           string `help:"Directory for screenshots and captcha crops." env:"ORVI_ARTIFACT_DIR" default:"screenshots"`
	Headless              bool   `help:"Run Chrome headless." env:"ORVI_HEADLESS" default:"true" negatable:""`
	ChromePath            string `help:"Chrome executable; autodetected when empty." env:"ORVI_CHROME_PATH"`
	CaptchaOracleFallback bool   `help:"Ask the vision oracle to read captchas the resolver left unsolved." env:"ORVI_CAPTCHA_ORACLE_FALLBACK"`
}

// Validate rejects configurations no mission could run with. Missing API keys
// are not errors: the affected capability fails at use time instead.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.LogSink) == "" {
		errs = append(errs, errors.New("log sink path must not be empty"))
	}
	if strings.TrimSpace(c.ArtifactDir) == "" {
		errs = append(errs, errors.New("artifact directory must not be empty"))
	}
	if strings.TrimSpace(c.VisionModel) == "" {
		errs = append(errs, errors.New("vision model must not be empty"))
	}
	return errors.Join(errs...)
}

// Warnings lists the capabilities that will be unavailable.
func (c *Config) Warnings() []string {
	var out []string
	if c.VisionAPIKey == "" {
		out = append(out, "GOOGLE_API_KEY is not set: validation steps will fail")
	}
	if c.CaptchaAPIKey == "" {
		out = append(out, "ANTICAPTCHA_API_KEY is not set: captcha steps will fail")
	}
	return out
}
