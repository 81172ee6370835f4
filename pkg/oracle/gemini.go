// Package oracle judges screenshots with a Gemini vision model.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/orviagent/orvi/pkg/types"
)

const DefaultModel = "gemini-2.5-flash"

const validatePrompt = `Analyze this screenshot and decide whether the following condition holds: %q.
Reply ONLY with a JSON object of this shape:
{"passed": boolean, "reason": "short explanation"}`

const extractPrompt = `This image contains a captcha. Locate the captcha characters (alphanumeric, ignore strikethrough lines). ` +
	`Return ONLY the exact characters (e.g. Ab3d). No spaces, no JSON, no markdown.`

var ErrNoAPIKey = errors.New("vision API key not configured")

// contentGenerator is the subset of *genai.Models the oracle needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements types.Oracle.
type Gemini struct {
	models contentGenerator
	model  string
	logger types.Logger
}

// NewGemini builds an oracle against the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, logger types.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return newGemini(client.Models, model, logger), nil
}

func newGemini(models contentGenerator, model string, logger types.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{models: models, model: model, logger: logger}
}

// Validate asks whether condition holds on the screenshot at imagePath. An
// empty condition always passes. Any failure of the call itself wraps
// types.ErrOracleUnreachable.
func (g *Gemini) Validate(ctx context.Context, imagePath, condition string) (types.Verdict, error) {
	if condition == "" {
		return types.Verdict{Passed: true, Reason: "no validation condition provided"}, nil
	}

	g.logger.Info().Str("condition", condition).Msg("Oracle validating")
	text, err := g.generate(ctx, imagePath, fmt.Sprintf(validatePrompt, condition), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		return types.Verdict{Passed: false, Reason: err.Error()}, err
	}

	var verdict types.Verdict
	if err := json.Unmarshal([]byte(stripFence(text)), &verdict); err != nil {
		err = fmt.Errorf("%w: decoding verdict %q: %w", types.ErrOracleUnreachable, text, err)
		return types.Verdict{Passed: false, Reason: err.Error()}, err
	}

	g.logger.Info().Bool("passed", verdict.Passed).Str("reason", verdict.Reason).Msg("Oracle verdict")
	return verdict, nil
}

// ExtractText reads captcha characters from the image.
func (g *Gemini) ExtractText(ctx context.Context, imagePath string) (string, error) {
	g.logger.Info().Str("image", imagePath).Msg("Oracle extracting text")
	text, err := g.generate(ctx, imagePath, extractPrompt, nil)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(stripFence(text))
	g.logger.Info().Int("chars", len(text)).Msg("Oracle extracted text")
	return text, nil
}

func (g *Gemini) generate(ctx context.Context, imagePath, prompt string, config *genai.GenerateContentConfig) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("reading image %q: %w", imagePath, err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, "image/png"),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrOracleUnreachable, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", types.ErrOracleUnreachable)
	}
	return resp.Text(), nil
}

// stripFence removes a surrounding ``` block some models add despite the prompt.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
