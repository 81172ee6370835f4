// Package captcha recognizes image captchas through the anti-captcha.com API.
package captcha

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/orviagent/orvi/pkg/types"
)

const (
	DefaultBaseURL      = "https://api.anti-captcha.com"
	defaultPollInterval = 3 * time.Second
	defaultSolveTimeout = 2 * time.Minute
	defaultHttpTimeout  = 30 * time.Second
)

var ErrNoAPIKey = errors.New("anti-captcha API key not configured")

// AntiCaptcha implements types.CaptchaResolver.
type AntiCaptcha struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	timeout      time.Duration
	logger       types.Logger
}

type Option func(*AntiCaptcha)

func WithBaseURL(u string) Option {
	return func(a *AntiCaptcha) { a.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *AntiCaptcha) { a.client = c }
}

func WithPollInterval(d time.Duration) Option {
	return func(a *AntiCaptcha) { a.pollInterval = d }
}

func WithTimeout(d time.Duration) Option {
	return func(a *AntiCaptcha) { a.timeout = d }
}

func NewAntiCaptcha(apiKey string, logger types.Logger, opts ...Option) *AntiCaptcha {
	a := &AntiCaptcha{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		client:       &http.Client{Timeout: defaultHttpTimeout},
		pollInterval: defaultPollInterval,
		timeout:      defaultSolveTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type createTaskRequest struct {
	ClientKey string    `json:"clientKey"`
	Task      imageTask `json:"task"`
}

type imageTask struct {
	Type string `json:"type"`
	Body string `json:"body"`
}

type taskResultRequest struct {
	ClientKey string `json:"clientKey"`
	TaskID    int64  `json:"taskId"`
}

type apiResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
	TaskID           int64  `json:"taskId"`
	Status           string `json:"status"`
	Solution         struct {
		Text string `json:"text"`
	} `json:"solution"`
}

func (r apiResponse) err() error {
	if r.ErrorID == 0 {
		return nil
	}
	return fmt.Errorf("anti-captcha error %d %s: %s", r.ErrorID, r.ErrorCode, r.ErrorDescription)
}

// Solve submits the image and polls until a solution is ready. The returned
// text is empty whenever err is non-nil.
func (a *AntiCaptcha) Solve(ctx context.Context, imagePath string) (string, error) {
	if a.apiKey == "" {
		a.logger.Error().Msg("No anti-captcha API key provided")
		return "", ErrNoAPIKey
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("reading captcha image: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.logger.Info().Str("image", imagePath).Msg("Sending captcha to anti-captcha")

	var created apiResponse
	err = a.post(ctx, "/createTask", createTaskRequest{
		ClientKey: a.apiKey,
		Task: imageTask{
			Type: "ImageToTextTask",
			Body: base64.StdEncoding.EncodeToString(data),
		},
	}, &created)
	if err != nil {
		return "", fmt.Errorf("creating captcha task: %w", err)
	}
	if err := created.err(); err != nil {
		return "", err
	}

	limiter := rate.NewLimiter(rate.Every(a.pollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for captcha task %d: %w", created.TaskID, err)
		}

		var result apiResponse
		err := a.post(ctx, "/getTaskResult", taskResultRequest{ClientKey: a.apiKey, TaskID: created.TaskID}, &result)
		if err != nil {
			return "", fmt.Errorf("polling captcha task %d: %w", created.TaskID, err)
		}
		if err := result.err(); err != nil {
			return "", err
		}

		switch result.Status {
		case "ready":
			a.logger.Info().Msg("Anti-captcha solved")
			return result.Solution.Text, nil
		case "processing":
			a.logger.Debug().Int("task_id", int(created.TaskID)).Msg("Captcha still processing")
		default:
			return "", fmt.Errorf("unexpected anti-captcha status %q", result.Status)
		}
	}
}

func (a *AntiCaptcha) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body to JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Orvi-Captcha-Client/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-success HTTP status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
