// Package browser implements the action driver on top of chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/orviagent/orvi/pkg/types"
)

const (
	defaultActionTimeout = 30 * time.Second
	visibilityProbe      = time.Second
	screenshotQuality    = 100
)

// Driver drives one Chrome tab. It is not safe for concurrent use.
type Driver struct {
	ctx           context.Context
	tabCancel     context.CancelFunc
	allocCancel   context.CancelFunc
	actionTimeout time.Duration
}

// run executes actions under a timeout, aborting early if ctx is cancelled.
// Only the tab context created by NewContext owns the tab, so cancelling the
// derived context leaves the browser open.
func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: after %s: %w", types.ErrElementNotFound, timeout, err)
	}
	return err
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, d.actionTimeout, chromedp.Navigate(url))
}

func (d *Driver) CurrentLocation(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, d.actionTimeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (d *Driver) Reload(ctx context.Context) error {
	return d.run(ctx, d.actionTimeout, chromedp.Reload())
}

// WaitForVisible treats a zero budget as a single short probe.
func (d *Driver) WaitForVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = visibilityProbe
	}
	q := translateSelector(selector)
	return d.run(ctx, timeout, chromedp.WaitVisible(q.expr, q.by()))
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	q := translateSelector(selector)
	return d.run(ctx, d.actionTimeout, chromedp.Click(q.expr, q.by(), chromedp.NodeVisible))
}

func (d *Driver) Clear(ctx context.Context, selector string) error {
	q := translateSelector(selector)
	return d.run(ctx, d.actionTimeout,
		chromedp.Click(q.expr, q.by(), chromedp.NodeVisible),
		chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)),
		chromedp.KeyEvent(kb.Backspace),
	)
}

func (d *Driver) Fill(ctx context.Context, selector, text string) error {
	if err := d.Clear(ctx, selector); err != nil {
		return err
	}
	q := translateSelector(selector)
	return d.run(ctx, d.actionTimeout, chromedp.SendKeys(q.expr, text, q.by()))
}

// Type sends text one key at a time, pausing perChar between keys.
func (d *Driver) Type(ctx context.Context, selector, text string, perChar time.Duration) error {
	q := translateSelector(selector)
	actions := []chromedp.Action{chromedp.Focus(q.expr, q.by())}
	for _, r := range text {
		actions = append(actions, chromedp.KeyEvent(string(r)))
		if perChar > 0 {
			actions = append(actions, chromedp.Sleep(perChar))
		}
	}

	timeout := d.actionTimeout + time.Duration(len(actions))*perChar
	return d.run(ctx, timeout, actions...)
}

func (d *Driver) ReadText(ctx context.Context, selector string) (string, error) {
	q := translateSelector(selector)
	var text string
	if err := d.run(ctx, d.actionTimeout, chromedp.Text(q.expr, &text, q.by(), chromedp.NodeVisible)); err != nil {
		return "", err
	}
	return text, nil
}

// IsVisible probes briefly and never reports a missing element as an error.
func (d *Driver) IsVisible(ctx context.Context, selector string) (bool, error) {
	q := translateSelector(selector)
	err := d.run(ctx, visibilityProbe, chromedp.WaitVisible(q.expr, q.by()))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, types.ErrElementNotFound) {
		return false, nil
	}
	return false, err
}

func (d *Driver) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := d.run(ctx, d.actionTimeout, chromedp.FullScreenshot(&buf, screenshotQuality)); err != nil {
		return fmt.Errorf("capturing page: %w", err)
	}
	return os.WriteFile(path, buf, 0644)
}

func (d *Driver) ScreenshotElement(ctx context.Context, selector, path string) error {
	q := translateSelector(selector)
	var buf []byte
	if err := d.run(ctx, d.actionTimeout, chromedp.Screenshot(q.expr, &buf, q.by(), chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("capturing element %q: %w", selector, err)
	}
	return os.WriteFile(path, buf, 0644)
}

// Close shuts the browser down. It is safe to call more than once.
func (d *Driver) Close() error {
	err := chromedp.Cancel(d.ctx)
	d.tabCancel()
	d.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
