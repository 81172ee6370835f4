// Package drivertest provides scripted in-memory implementations of the
// browser, oracle and captcha capabilities for tests.
package drivertest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/orviagent/orvi/pkg/types"
)

// Driver records every call it receives as "method(arg, ...)".
type Driver struct {
	mu    sync.Mutex
	calls []string

	Location string
	// Hidden selectors never become visible.
	Hidden map[string]bool
	// FailTimes makes WaitForVisible fail the first N times for a selector.
	FailTimes map[string]int
	// Texts answers ReadText.
	Texts map[string]string
	// Errors fails a method, keyed by "method" or "method:selector".
	Errors map[string]error

	// ElementImage is written by ScreenshotElement; defaults to placeholder bytes.
	ElementImage  []byte
	ScreenshotErr error
	CloseErr      error
	Closed        bool
	// OnCall, when set, runs before each recorded call.
	OnCall func(call string)
}

func NewDriver() *Driver {
	return &Driver{
		Hidden:    map[string]bool{},
		FailTimes: map[string]int{},
		Texts:     map[string]string{},
		Errors:    map[string]error{},
	}
}

func (d *Driver) record(method string, args ...string) error {
	call := fmt.Sprintf("%s(%s)", method, strings.Join(args, ", "))
	if d.OnCall != nil {
		d.OnCall(call)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)

	if len(args) > 0 {
		if err, ok := d.Errors[method+":"+args[0]]; ok {
			return err
		}
	}
	return d.Errors[method]
}

// Calls returns a copy of the recorded calls.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// Called reports whether any recorded call starts with prefix.
func (d *Driver) Called(prefix string) bool {
	for _, c := range d.Calls() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.record("navigate", url); err != nil {
		return err
	}
	d.mu.Lock()
	d.Location = url
	d.mu.Unlock()
	return nil
}

func (d *Driver) CurrentLocation(ctx context.Context) (string, error) {
	if err := d.record("current_location"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Location, nil
}

func (d *Driver) Reload(ctx context.Context) error {
	return d.record("reload")
}

func (d *Driver) WaitForVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := d.record("wait_for_visible", selector, timeout.String()); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Hidden[selector] {
		return fmt.Errorf("%w: %q not visible after %s", types.ErrElementNotFound, selector, timeout)
	}
	if d.FailTimes[selector] > 0 {
		d.FailTimes[selector]--
		return fmt.Errorf("%w: %q not visible after %s", types.ErrElementNotFound, selector, timeout)
	}
	return nil
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	return d.record("click", selector)
}

func (d *Driver) Clear(ctx context.Context, selector string) error {
	return d.record("clear", selector)
}

func (d *Driver) Fill(ctx context.Context, selector, text string) error {
	return d.record("fill", selector, text)
}

func (d *Driver) Type(ctx context.Context, selector, text string, perChar time.Duration) error {
	return d.record("type", selector, text)
}

func (d *Driver) ReadText(ctx context.Context, selector string) (string, error) {
	if err := d.record("read_text", selector); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	text, ok := d.Texts[selector]
	if !ok {
		return "", fmt.Errorf("%w: %q", types.ErrElementNotFound, selector)
	}
	return text, nil
}

func (d *Driver) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := d.record("is_visible", selector); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.Hidden[selector], nil
}

func (d *Driver) Screenshot(ctx context.Context, path string) error {
	if err := d.record("screenshot", path); err != nil {
		return err
	}
	if d.ScreenshotErr != nil {
		return d.ScreenshotErr
	}
	return os.WriteFile(path, []byte("page"), 0644)
}

func (d *Driver) ScreenshotElement(ctx context.Context, selector, path string) error {
	if err := d.record("screenshot_element", selector, path); err != nil {
		return err
	}
	data := d.ElementImage
	if data == nil {
		data = []byte("element")
	}
	return os.WriteFile(path, data, 0644)
}

func (d *Driver) Close() error {
	d.mu.Lock()
	d.Closed = true
	d.mu.Unlock()
	return d.CloseErr
}

// Factory hands out a prepared Driver.
type Factory struct {
	Driver  *Driver
	OpenErr error
	Opened  int
}

func (f *Factory) Open(ctx context.Context) (types.Driver, error) {
	f.Opened++
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	return f.Driver, nil
}

// Oracle replays verdicts in order; the last verdict repeats once exhausted.
type Oracle struct {
	mu       sync.Mutex
	Verdicts []types.Verdict
	Errs     []error
	Text     string
	TextErr  error

	ValidateCalls int
	ExtractCalls  int
}

func (o *Oracle) Validate(ctx context.Context, imagePath, condition string) (types.Verdict, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	i := o.ValidateCalls
	o.ValidateCalls++
	if i < len(o.Errs) && o.Errs[i] != nil {
		return types.Verdict{}, o.Errs[i]
	}
	if len(o.Verdicts) == 0 {
		return types.Verdict{Passed: false, Reason: "no verdict scripted"}, nil
	}
	if i >= len(o.Verdicts) {
		i = len(o.Verdicts) - 1
	}
	return o.Verdicts[i], nil
}

func (o *Oracle) ExtractText(ctx context.Context, imagePath string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ExtractCalls++
	return o.Text, o.TextErr
}

// Resolver answers every captcha with Answer.
type Resolver struct {
	mu     sync.Mutex
	Answer string
	Err    error
	Images []string
}

func (r *Resolver) Solve(ctx context.Context, imagePath string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Images = append(r.Images, imagePath)
	return r.Answer, r.Err
}

// Calls returns how many captchas were submitted.
func (r *Resolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Images)
}

// PNG returns a small encoded grayscale gradient usable as a captcha crop.
func PNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 2))
	for x := 0; x < 8; x++ {
		v := uint8(x * 32)
		img.Set(x, 0, color.NRGBA{R: v, G: v, B: v, A: 255})
		img.Set(x, 1, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
